package metrics

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"primesha.org/primesha/testutil"
)

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveHash(3, time.Millisecond)
	m.ObserveHash(64, time.Millisecond)
	m.ObserveError("read")
	m.ObserveCacheHit()

	path := filepath.Join(testutil.TempDir(t), "primesha.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	text := string(b)
	for _, line := range []string{
		"primesha_files_hashed_total 2",
		"primesha_bytes_hashed_total 67",
		// 3 bytes fit one block, 64 bytes need two
		"primesha_blocks_compressed_total 3",
		`primesha_hash_errors_total{stage="read"} 1`,
		"primesha_cache_hits_total 1",
		"primesha_hash_duration_seconds_count 2",
	} {
		assert.True(t, strings.Contains(text, line), "missing %q in\n%s", line, text)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHash(1, time.Second)
		m.ObserveError("read")
		m.ObserveCacheHit()
	})
	assert.NoError(t, m.WriteTextfile("/nonexistent/dir/file"))
	assert.NoError(t, New().WriteTextfile(""))
}

func TestWriteTextfileBadPath(t *testing.T) {
	assert.Error(t, New().WriteTextfile(filepath.Join(testutil.TempDir(t), "missing", "x.prom")))
}
