package sha256

import (
	"sync"

	"github.com/pkg/errors"
	"lukechampine.com/uint128"
)

var (
	// ErrUnsupportedRoot indicates a root degree other than 2 or 3.
	ErrUnsupportedRoot = errors.New("only square and cube roots are supported")

	// ErrConstantMismatch indicates a derived constant differs from the published table.
	ErrConstantMismatch = errors.New("derived constant does not match published table")
)

// IsPrime reports whether x is prime, by trial division up to √x.
func IsPrime(x uint32) bool {
	switch {
	case x < 2:
		return false
	case x < 4:
		return true
	case x%2 == 0:
		return false
	}
	for i := uint64(3); i*i <= uint64(x); i += 2 {
		if uint64(x)%i == 0 {
			return false
		}
	}
	return true
}

// Primes returns the first n primes in increasing order, starting at 2.
func Primes(n int) []uint32 {
	if n <= 0 {
		return nil
	}
	primes := make([]uint32, 0, n)
	for x := uint32(2); len(primes) < n; x++ {
		if IsPrime(x) {
			primes = append(primes, x)
		}
	}
	return primes
}

// FracOfRoot returns the first 32 bits of the binary expansion of the
// fractional part of the n-th root of p.
//
// The root is taken over the integer p·2^(32n), whose n-th root is
// floor(root(p)·2^32); its low 32 bits are exactly the wanted fraction bits.
// All arithmetic is 128-bit integer, so no bit depends on float rounding.
func FracOfRoot(p uint32, n int) (uint32, error) {
	if n != 2 && n != 3 {
		return 0, errors.Wrapf(ErrUnsupportedRoot, "degree %d", n)
	}
	x := uint128.From64(uint64(p)).Lsh(uint(32 * n))

	lo, hi := uint64(0), uint64(1)<<uint(32+32/n+1)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if powExceeds(mid, n, x) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return uint32(lo), nil
}

// powExceeds reports whether r^n > x without overflowing 128 bits. r must be non-zero.
func powExceeds(r uint64, n int, x uint128.Uint128) bool {
	bound := x.Div64(r)
	acc := uint128.From64(1)
	for i := 0; i < n; i++ {
		if acc.Cmp(bound) > 0 {
			return true
		}
		acc = acc.Mul64(r)
	}
	return false
}

// Derive computes the initial hash words from the square roots of the first
// 8 primes and the round constants from the cube roots of the first 64.
func Derive() Constants {
	var c Constants
	primes := Primes(Rounds)
	for i := range c.H {
		c.H[i], _ = FracOfRoot(primes[i], 2)
	}
	for i := range c.K {
		c.K[i], _ = FracOfRoot(primes[i], 3)
	}
	return c
}

var (
	derivedOnce sync.Once
	derived     Constants
)

// Derived returns the derived tables, computing them once per process.
func Derived() Constants {
	derivedOnce.Do(func() {
		derived = Derive()
	})
	return derived
}

// VerifyConstants checks the derived tables against the published ones and
// reports the first mismatch.
func VerifyConstants() error {
	c := Derived()
	for i, h := range c.H {
		if h != _H[i] {
			return errors.Wrapf(ErrConstantMismatch, "H[%d] = %#08x, want %#08x", i, h, _H[i])
		}
	}
	for i, k := range c.K {
		if k != _K[i] {
			return errors.Wrapf(ErrConstantMismatch, "K[%d] = %#08x, want %#08x", i, k, _K[i])
		}
	}
	return nil
}
