package sha256

import (
	"encoding/binary"
	"math/bits"
)

// Schedule is the message schedule of one block.
type Schedule [Rounds]uint32

func rotr(x uint32, k int) uint32 {
	return bits.RotateLeft32(x, -k)
}

func sigma0(x uint32) uint32 {
	return rotr(x, 7) ^ rotr(x, 18) ^ (x >> 3)
}

func sigma1(x uint32) uint32 {
	return rotr(x, 17) ^ rotr(x, 19) ^ (x >> 10)
}

// Expand builds the 64-word schedule of a block: 16 big-endian words copied
// from the block, then 48 words mixed from earlier ones.
func Expand(block *[BlockSize]byte) Schedule {
	var w Schedule
	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(block[i*4:])
	}
	for i := 16; i < Rounds; i++ {
		w[i] = w[i-16] + sigma0(w[i-15]) + w[i-7] + sigma1(w[i-2])
	}
	return w
}
