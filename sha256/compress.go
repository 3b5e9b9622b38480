package sha256

// State is the running hash state carried across blocks.
type State [8]uint32

// Compress runs the 64 rounds for one block and folds the working state back
// into h.
func Compress(h *State, w *Schedule, k *[Rounds]uint32) {
	v := *h
	for j := 0; j < Rounds; j++ {
		s1 := rotr(v[4], 6) ^ rotr(v[4], 11) ^ rotr(v[4], 25)
		ch := (v[4] & v[5]) ^ (^v[4] & v[6])
		t1 := v[7] + s1 + ch + k[j] + w[j]

		s0 := rotr(v[0], 2) ^ rotr(v[0], 13) ^ rotr(v[0], 22)
		maj := (v[0] & v[1]) ^ (v[0] & v[2]) ^ (v[1] & v[2])
		t2 := s0 + maj

		v[7] = v[6]
		v[6] = v[5]
		v[5] = v[4]
		v[4] = v[3] + t1
		v[3] = v[2]
		v[2] = v[1]
		v[1] = v[0]
		v[0] = t1 + t2
	}
	for i := range h {
		h[i] += v[i]
	}
}

// Digest renders the state as a digest, each word most significant byte first.
func (s State) Digest() Digest {
	var d Digest
	for i, x := range s {
		d[i*4] = byte(x >> 24)
		d[i*4+1] = byte(x >> 16)
		d[i*4+2] = byte(x >> 8)
		d[i*4+3] = byte(x)
	}
	return d
}
