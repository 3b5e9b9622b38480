package testutil

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

// TempDir creates a directory removed when the test ends.
func TempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "primesha-test")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// WriteTempFile writes data to dir/name and returns the path.
func WriteTempFile(t *testing.T, dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
