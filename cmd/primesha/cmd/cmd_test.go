package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errcode "primesha.org/primesha/errors"
	"primesha.org/primesha/testutil"
)

const (
	helloWorld = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	empty      = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	abc        = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	abcNewline = "edeaaff3f1774ad2888673770c6d64097e391bc362d7d6fb34982ddf0efd18cb"
)

type env struct {
	dir   string
	flags []string
}

func newEnv(t *testing.T) *env {
	dir := testutil.TempDir(t)
	cfg := `{"log":{"log_level":"debug","disable_cprint":true}}`
	return &env{
		dir: dir,
		flags: []string{
			"--config", testutil.WriteTempFile(t, dir, "primesha.json", []byte(cfg)),
			"--log_dir", filepath.Join(dir, "logs"),
			"--store_dir", filepath.Join(dir, "digests"),
			"--db_type", "leveldb",
		},
	}
}

func (e *env) run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = Execute(append(append([]string(nil), e.flags...), args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (e *env) file(t *testing.T, name, content string) string {
	return testutil.WriteTempFile(t, e.dir, name, []byte(content))
}

func TestPrintMessage(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		content string
		stdout  string
	}{
		{"hello world\n", "Message:\nhello world\nHash:\n" + helloWorld + "\n"},
		{"hello world", "Message:\nhello world\nHash:\n" + helloWorld + "\n"},
		{"", "Message:\n\nHash:\n" + empty + "\n"},
		{"\n", "Message:\n\nHash:\n" + empty + "\n"},
		{"abc\n\n", "Message:\nabc\n\nHash:\n" + abcNewline + "\n"},
	}
	for _, test := range tests {
		code, stdout, _ := e.run(e.file(t, "msg", test.content))
		assert.Equal(t, errcode.ExitOK, code, "%q", test.content)
		assert.Equal(t, test.stdout, stdout, "%q", test.content)
	}
}

func TestPrintMessageErrors(t *testing.T) {
	e := newEnv(t)
	path := e.file(t, "msg", "abc")

	code, stdout, stderr := e.run()
	assert.Equal(t, errcode.ExitUsage, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage:")

	code, _, _ = e.run(path, path)
	assert.Equal(t, errcode.ExitUsage, code)

	code, stdout, stderr = e.run(filepath.Join(e.dir, "missing"))
	assert.Equal(t, errcode.ExitIO, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "read message")
	assert.NotContains(t, stderr, "Usage:")

	code, _, _ = e.run(e.dir)
	assert.Equal(t, errcode.ExitIO, code)

	code, stdout, stderr = e.run(path, "--no-such-flag")
	assert.Equal(t, errcode.ExitUsage, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage:")
}

func TestPrintMessageIgnoresConfig(t *testing.T) {
	e := newEnv(t)
	path := e.file(t, "msg", "abc\n")
	want := "Message:\nabc\nHash:\n" + abc + "\n"

	notDir := e.file(t, "not-a-dir", "")
	code, stdout, _ := e.run(path, "--log_dir", notDir)
	assert.Equal(t, errcode.ExitOK, code)
	assert.Equal(t, want, stdout)

	code, stdout, _ = e.run(path, "--db_type", "bolt")
	assert.Equal(t, errcode.ExitOK, code)
	assert.Equal(t, want, stdout)
}

func TestConfigErrorsSkipUsage(t *testing.T) {
	e := newEnv(t)
	path := e.file(t, "msg", "abc")

	code, stdout, stderr := e.run("hash", path, "--db_type", "bolt")
	assert.Equal(t, errcode.ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "unknown db type")
	assert.NotContains(t, stderr, "Usage:")

	notDir := e.file(t, "not-a-dir", "")
	code, stdout, stderr = e.run("hash", path, "--log_dir", notDir)
	assert.Equal(t, errcode.ExitOK, code, stderr)
	assert.Equal(t, abc+"  "+path+"\n", stdout)
}

func TestHash(t *testing.T) {
	e := newEnv(t)
	a := e.file(t, "a", "abc\n")
	b := e.file(t, "b", "hello world")

	code, stdout, stderr := e.run("hash", a, b, "--workers", "2")
	assert.Equal(t, errcode.ExitOK, code, stderr)
	assert.Equal(t, abc+"  "+a+"\n"+helloWorld+"  "+b+"\n", stdout)

	code, stdout, _ = e.run("hash", "--keep-newline", a)
	assert.Equal(t, errcode.ExitOK, code)
	assert.Equal(t, abcNewline+"  "+a+"\n", stdout)

	missing := filepath.Join(e.dir, "missing")
	code, stdout, stderr = e.run("hash", a, missing)
	assert.Equal(t, errcode.ExitIO, code)
	assert.Equal(t, abc+"  "+a+"\n", stdout)
	assert.Contains(t, stderr, missing)
	assert.Contains(t, stderr, "1 of 2 files failed")

	code, _, _ = e.run("hash")
	assert.Equal(t, errcode.ExitUsage, code)

	code, _, _ = e.run("hash", a, "--workers", "-1")
	assert.Equal(t, errcode.ExitUsage, code)
}

func TestHashJSON(t *testing.T) {
	e := newEnv(t)
	a := e.file(t, "a", "abc")
	missing := filepath.Join(e.dir, "missing")

	code, stdout, _ := e.run("hash", "--json", a, missing)
	assert.Equal(t, errcode.ExitIO, code)

	var results []jsonResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.Equal(t, jsonResult{Path: a, Digest: abc, Size: 3}, results[0])
	assert.Equal(t, missing, results[1].Path)
	assert.Empty(t, results[1].Digest)
	assert.NotEmpty(t, results[1].Error)
}

func TestHashSameFileHitsCache(t *testing.T) {
	e := newEnv(t)
	a := e.file(t, "a", "abc")
	sep := string(filepath.Separator)
	same := e.dir + sep + "." + sep + "a"

	code, stdout, stderr := e.run("hash", "--json", a, a, same)
	require.Equal(t, errcode.ExitOK, code, stderr)

	var results []jsonResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 3)
	assert.Equal(t, jsonResult{Path: a, Digest: abc, Size: 3}, results[0])
	assert.Equal(t, jsonResult{Path: a, Digest: abc, Size: 3, Cached: true}, results[1])
	assert.Equal(t, jsonResult{Path: same, Digest: abc, Size: 3, Cached: true}, results[2])
}

func TestHashFormat(t *testing.T) {
	e := newEnv(t)
	a := e.file(t, "a", "abc")
	tests := []struct {
		format string
		digest string
	}{
		{"sha256", abc},
		{"sha256d", "4f8b42c22dd3729b519ba6f68d2da7cc5b2d606d05daed5ad5128cc03e6c6358"},
		{"hash160", "bb1be98c142444d7a56aa3981c3942a978e4dc33"},
	}
	for _, test := range tests {
		code, stdout, _ := e.run("hash", "--format", test.format, a)
		assert.Equal(t, errcode.ExitOK, code, test.format)
		assert.Equal(t, test.digest+"  "+a+"\n", stdout, test.format)
	}

	code, _, stderr := e.run("hash", "--format", "md5", a)
	assert.Equal(t, errcode.ExitUsage, code)
	assert.Contains(t, stderr, "Usage:")
}

func TestRecordAndCheck(t *testing.T) {
	e := newEnv(t)
	a := e.file(t, "a", "abc")
	b := e.file(t, "b", "hello world")

	code, _, stderr := e.run("hash", "--record", a, b)
	require.Equal(t, errcode.ExitOK, code, stderr)

	code, stdout, stderr := e.run("check", a, b)
	assert.Equal(t, errcode.ExitOK, code, stderr)
	assert.Equal(t, a+": OK\n"+b+": OK\n", stdout)

	code, stdout, _ = e.run("check")
	assert.Equal(t, errcode.ExitOK, code)
	assert.Equal(t, 2, strings.Count(stdout, ": OK"))

	e.file(t, "b", "hello world!")
	code, stdout, stderr = e.run("check", a, b)
	assert.Equal(t, errcode.ExitMismatch, code)
	assert.Equal(t, a+": OK\n"+b+": FAILED\n", stdout)
	assert.Contains(t, stderr, "1 of 2 files did not match")

	c := e.file(t, "c", "new")
	code, stdout, _ = e.run("check", c)
	assert.Equal(t, errcode.ExitMismatch, code)
	assert.Equal(t, c+": NOT RECORDED\n", stdout)
}

func TestCheckMissingFile(t *testing.T) {
	e := newEnv(t)
	a := e.file(t, "a", "abc")
	code, _, _ := e.run("hash", "--record", a)
	require.Equal(t, errcode.ExitOK, code)

	missing := filepath.Join(e.dir, "missing")
	code, _, stderr := e.run("check", missing)
	assert.Equal(t, errcode.ExitIO, code)
	assert.Contains(t, stderr, missing)
}

func TestConstants(t *testing.T) {
	e := newEnv(t)

	code, stdout, _ := e.run("constants", "--verify")
	assert.Equal(t, errcode.ExitOK, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 1+8+1)
	assert.Equal(t, "H[00] 6a09e667 bb67ae85 3c6ef372 a54ff53a 510e527f 9b05688c 1f83d9ab 5be0cd19", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "K[00] 428a2f98 71374491"))
	assert.True(t, strings.HasSuffix(lines[8], "bef9a3f7 c67178f2"))
	assert.Equal(t, "derived constants match the published tables", lines[9])

	code, stdout, _ = e.run("constants", "--dump")
	assert.Equal(t, errcode.ExitOK, code)
	assert.Contains(t, stdout, "sha256.Constants")

	code, _, _ = e.run("constants", "extra")
	assert.Equal(t, errcode.ExitUsage, code)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := newEnv(t).run("version")
	assert.Equal(t, errcode.ExitOK, code)
	assert.True(t, strings.HasPrefix(stdout, "primesha version 1.0.0"))
}
