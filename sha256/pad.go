package sha256

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// MaxMessageLen is the longest message, in bytes, whose bit length fits the
// 64-bit length field.
const MaxMessageLen = 1<<61 - 1

// ErrMessageTooLong indicates a message whose bit length overflows 64 bits.
var ErrMessageTooLong = errors.New("message bit length exceeds 64 bits")

func checkLength(n uint64) error {
	if n > MaxMessageLen {
		return errors.Wrapf(ErrMessageTooLong, "%d bytes", n)
	}
	return nil
}

// PaddedLen returns the padded length in bytes of an n-byte message: room for
// the 0x80 marker and the 8-byte length, rounded up to a whole block.
func PaddedLen(n uint64) uint64 {
	return (n + 9 + chunk - 1) / chunk * chunk
}

// BlockCount returns the number of blocks compressed for an n-byte message.
func BlockCount(n uint64) uint64 {
	return PaddedLen(n) / chunk
}

// Pad returns msg followed by a single 1 bit, zero bits up to 448 mod 512,
// and the original bit length as a 64-bit big-endian integer.
func Pad(msg []byte) ([]byte, error) {
	n := uint64(len(msg))
	if err := checkLength(n); err != nil {
		return nil, err
	}
	full := len(msg) - len(msg)%chunk
	out := make([]byte, full, PaddedLen(n))
	copy(out, msg[:full])
	return append(out, tail(msg[full:], n)...), nil
}

// tail pads the trailing partial block rest of a total-byte message. It
// returns one block, or two when fewer than 9 bytes remain free.
func tail(rest []byte, total uint64) []byte {
	size := chunk
	if len(rest)+9 > chunk {
		size = 2 * chunk
	}
	buf := make([]byte, size)
	copy(buf, rest)
	buf[len(rest)] = 0x80
	binary.BigEndian.PutUint64(buf[size-8:], total<<3)
	return buf
}
