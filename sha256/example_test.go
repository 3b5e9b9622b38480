package sha256_test

import (
	"fmt"

	"primesha.org/primesha/sha256"
)

func ExampleSum256() {
	sum := sha256.Sum256([]byte("hello world\n"))
	fmt.Println(sum)
	// Output: a948904f2f0f479b8f8197694b30184b0d2ed1c1cd2a1ec0fb85d299a192a447
}

func ExampleFracOfRoot() {
	h0, _ := sha256.FracOfRoot(2, 2)
	k0, _ := sha256.FracOfRoot(2, 3)
	fmt.Printf("%08x %08x\n", h0, k0)
	// Output: 6a09e667 428a2f98
}
