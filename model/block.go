package model

import "github.com/bamilab/quartznet/common"

// FileBlockLength and PostBlockLength are the fixed block sizes used when
// splitting content for content-addressed storage (spec.md §3, §6).
const (
	FileBlockLength = 1 << 20 // 1 MiB
	PostBlockLength = 1 << 10 // 1 KiB
)

// BreakupData splits data into ceil(len(data)/blockLen) slices, each
// exactly blockLen bytes except the last.
func BreakupData(data []byte, blockLen int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	n := (len(data) + blockLen - 1) / blockLen
	blocks := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		start := i * blockLen
		end := start + blockLen
		if end > len(data) {
			end = len(data)
		}
		blocks = append(blocks, data[start:end])
	}
	return blocks
}

// HashBlocks returns the content hash of each slice, in order, using the
// caller-supplied hash function so this package does not depend on
// cryptoutil (avoiding an import cycle between model and cryptoutil's
// eventual consumers).
func HashBlocks(blocks [][]byte, hash func([]byte) common.Hash) []common.Hash {
	ids := make([]common.Hash, len(blocks))
	for i, b := range blocks {
		ids[i] = hash(b)
	}
	return ids
}
