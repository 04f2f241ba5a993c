package transport

import (
	"encoding/binary"

	"github.com/bamilab/quartznet/cryptoutil"
)

// OverlayPort computes the fixed port every swarm peer listens on,
// deterministically derived from H("QuartzNet") (spec.md §6), mapped into
// the ephemeral port range.
func OverlayPort() uint16 {
	h := cryptoutil.Hash([]byte("QuartzNet"))
	return uint16(binary.LittleEndian.Uint16(h[:2])%16384) + 49152
}
