// Package sha256 computes SHA-256 digests of complete in-memory messages.
//
// The pipeline is the textbook one: the message is padded to whole 512-bit
// blocks, every block is expanded into a 64-word schedule, and 64 rounds of
// compression fold it into the running 8-word state. The round constants and
// initial hash words are embedded; Derive recomputes them from prime roots
// and VerifyConstants checks the two agree.
package sha256

import (
	"encoding/binary"

	"github.com/pkg/errors"
	hex "github.com/tmthrgd/go-hex"
)

// ErrInvalidDigestLength indicates a hex digest that is not 64 characters long.
var ErrInvalidDigestLength = errors.New("invalid length for digest")

// Digest is a 256-bit SHA-256 digest.
type Digest [Size]byte

// String returns the digest as 64 lowercase hex characters.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Bytes returns a copy of the digest bytes.
func (d Digest) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, d[:])
	return b
}

// Words returns the digest as the final hash state.
func (d Digest) Words() State {
	var s State
	for i := range s {
		s[i] = binary.BigEndian.Uint32(d[i*4:])
	}
	return s
}

// DecodeString parses a 64-character hex digest.
func DecodeString(s string) (Digest, error) {
	var d Digest
	if len(s) != Size*2 {
		return d, errors.Wrapf(ErrInvalidDigestLength, "got %d characters", len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return Digest{}, errors.Wrap(err, "decode digest")
	}
	return d, nil
}

// Sum hashes data using the tables in c.
func (c Constants) Sum(data []byte) (Digest, error) {
	n := uint64(len(data))
	if err := checkLength(n); err != nil {
		return Digest{}, err
	}
	h := c.H
	full := len(data) - len(data)%chunk
	blocks(&h, &c.K, data[:full])
	blocks(&h, &c.K, tail(data[full:], n))
	return h.Digest(), nil
}

func blocks(h *State, k *[Rounds]uint32, p []byte) {
	for len(p) >= chunk {
		w := Expand((*[BlockSize]byte)(p[:chunk]))
		Compress(h, &w, k)
		p = p[chunk:]
	}
}

// Sum returns the SHA-256 digest of data.
func Sum(data []byte) (Digest, error) {
	return Standard().Sum(data)
}

// Sum256 returns the SHA-256 digest of data. It panics if the message is
// longer than MaxMessageLen.
func Sum256(data []byte) Digest {
	d, err := Sum(data)
	if err != nil {
		panic(err)
	}
	return d
}
