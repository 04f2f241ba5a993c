// Package cryptoutil provides the content-hash and purpose-tagged signature
// primitives used throughout the swarm node, adapted from crypto/crypto.go's
// Keccak state machinery and ECDSA key handling in the teacher repository.
package cryptoutil

import (
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/bamilab/quartznet/common"
)

// KeccakState wraps sha3's hash.Hash with the Read method used to extract
// an arbitrary number of bytes, mirroring crypto/crypto.go's KeccakState.
type KeccakState interface {
	Write([]byte) (int, error)
	Read([]byte) (int, error)
	Sum([]byte) []byte
	Reset()
}

var hasherPool = sync.Pool{
	New: func() interface{} { return sha3.NewLegacyKeccak256().(KeccakState) },
}

// HashData hashes the provided data into a Hash using the pooled state.
func HashData(data ...[]byte) (h common.Hash) {
	d := hasherPool.Get().(KeccakState)
	defer hasherPool.Put(d)
	d.Reset()
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}

// Hash is the content-hash function H(...) referenced throughout the
// specification: block ids, post hashes, and profile hashes are all
// Hash(serialize(value)).
func Hash(data []byte) common.Hash {
	return HashData(data)
}
