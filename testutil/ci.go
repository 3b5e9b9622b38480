package testutil

import (
	"os"
	"testing"
)

const envUseCI = "PRIMESHA_CI"

// SkipCI skips slow tests unless PRIMESHA_CI is set.
func SkipCI(t *testing.T) {
	if os.Getenv(envUseCI) == "" {
		t.Skip("Skip PRIMESHA CI")
	}
}
