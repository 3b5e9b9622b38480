// Package hashutil composes the sha256 digest into the hash chains used for
// content identifiers.
package hashutil

import (
	"hash"

	"golang.org/x/crypto/ripemd160"
	"primesha.org/primesha/sha256"
)

func calcHash(buf []byte, hasher hash.Hash) []byte {
	hasher.Write(buf)
	return hasher.Sum(nil)
}

// Sha256 returns sha256(data).
func Sha256(data []byte) []byte {
	return sha256.Sum256(data).Bytes()
}

// DoubleSha256 returns sha256(sha256(data)).
func DoubleSha256(data []byte) sha256.Digest {
	h := sha256.Sum256(data)
	return sha256.Sum256(h[:])
}

// Ripemd160 returns ripemd160(data).
func Ripemd160(data []byte) []byte {
	return calcHash(data, ripemd160.New())
}

// Hash160 returns ripemd160(sha256(data)), a 20-byte short identifier.
func Hash160(data []byte) []byte {
	h := sha256.Sum256(data)
	return calcHash(h[:], ripemd160.New())
}
