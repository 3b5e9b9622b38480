package version

import "fmt"

const (
	majorVersion uint32 = 1
	minorVersion uint32 = 0
	patchVersion uint32 = 0
)

// gitCommit is set at link time with -ldflags "-X primesha.org/primesha/version.gitCommit=...".
var gitCommit string

// GetVersion formats the version as "<major>.<minor>.<patch>[+<commit>]",
// like "1.0.0" or "1.0.0+1a2b3c4d".
func GetVersion() string {
	v := fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)
	if len(gitCommit) >= 8 {
		v += "+" + gitCommit[:8]
	}
	return v
}
