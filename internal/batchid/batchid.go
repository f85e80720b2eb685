// Package batchid derives a stable batch identifier from a block range
// rather than trusting any chain-reported sequence number, matching
// spec.md §9's design note: batch_number = hash(start_block, end_block) &
// 0x7FFFFFFF. Shared by the L2 EVM adapter (which commits batches) and the
// Celestia DA adapter (which must key its availability rows to the same
// batch_number to join against them).
package batchid

import "hash/fnv"

// Derive computes the batch number for the block range [startBlock, endBlock].
func Derive(startBlock, endBlock uint64) int32 {
	h := fnv.New64a()
	var buf [16]byte
	putUint64(buf[0:8], startBlock)
	putUint64(buf[8:16], endBlock)
	h.Write(buf[:])
	return int32(h.Sum64() & 0x7FFFFFFF)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
}
