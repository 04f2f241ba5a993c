// Package eventproc implements the swarm's event ordering state machine:
// strictly increasing event ids, a bounded out-of-order buffer, and the
// per-kind apply logic for channel- and publisher-scoped events.
package eventproc

import (
	"strconv"

	"github.com/VictoriaMetrics/fastcache"
)

// maxGap bounds how far ahead of the latest applied event id an incoming
// event may be before it is treated as malicious rather than merely
// out-of-order (the 100-event anti-DoS window).
const maxGap = 100

// futureWindowBytes sizes the in-memory dedup cache; it only needs to hold
// a marker per buffered id, so a small fixed budget is generous.
const futureWindowBytes = 4 * 1024 * 1024

// seenBuffer marks which (scope, event_id) pairs have already been
// persisted to the out-of-order buffer, so a replayed duplicate doesn't
// re-hit the database. The buffer is advisory: persistence.StoreEvent is
// idempotent (upsert) regardless, and fastcache's own eviction simply
// means an occasional redundant write, never a correctness gap.
type seenBuffer struct {
	cache *fastcache.Cache
}

func newSeenBuffer() *seenBuffer {
	return &seenBuffer{cache: fastcache.New(futureWindowBytes)}
}

func (b *seenBuffer) key(scope string, eventID uint64) []byte {
	return []byte(scope + ":" + strconv.FormatUint(eventID, 10))
}

func (b *seenBuffer) markIfNew(scope string, eventID uint64) bool {
	k := b.key(scope, eventID)
	if b.cache.Has(k) {
		return false
	}
	b.cache.Set(k, []byte{1})
	return true
}

func (b *seenBuffer) forget(scope string, eventID uint64) {
	b.cache.Del(b.key(scope, eventID))
}
