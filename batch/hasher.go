// Package batch digests many files concurrently on a bounded worker pool.
package batch

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"primesha.org/primesha/cache"
	"primesha.org/primesha/config"
	errcode "primesha.org/primesha/errors"
	"primesha.org/primesha/logging"
	"primesha.org/primesha/manifest"
	"primesha.org/primesha/metrics"
	"primesha.org/primesha/sha256"
)

// memCheckThreshold is the file size above which available memory is
// checked before reading.
const memCheckThreshold = 64 << 20

var ErrFileTooLarge = errors.New("file too large to hash in memory")

// Result is the outcome of hashing one input.
type Result struct {
	Path   string
	Digest sha256.Digest
	Size   int64
	Err    error
	// Cached is set when the digest came from the memo.
	Cached bool
}

type Option func(*Hasher)

// WithStore records every computed digest into store.
func WithStore(store *manifest.Store) Option {
	return func(h *Hasher) { h.store = store }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hasher) { h.metrics = m }
}

// WithCache memoizes digests by path, size and modification time.
func WithCache(c *cache.CCache) Option {
	return func(h *Hasher) { h.cache = c }
}

// Hasher is safe for concurrent use. Close releases its workers.
type Hasher struct {
	pool        *ants.Pool
	workers     int
	maxFileSize int64
	keepNewline bool

	cache   *cache.CCache
	store   *manifest.Store
	metrics *metrics.Metrics
}

// NewHasher creates a hasher with cfg.PoolSize workers, or one per logical
// CPU when it is 0.
func NewHasher(cfg *config.Worker, opts ...Option) (*Hasher, error) {
	if cfg == nil {
		cfg = config.DefaultWorker()
	}
	workers := cfg.PoolSize
	if workers <= 0 {
		workers = logicalCPUs()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	h := &Hasher{
		pool:        pool,
		workers:     workers,
		maxFileSize: cfg.MaxFileSize,
		keepNewline: cfg.KeepNewline,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func logicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func (h *Hasher) Workers() int {
	return h.workers
}

func (h *Hasher) Close() {
	h.pool.Release()
}

// HashFiles hashes every path and returns one result per path in input order.
// Failures of single files are reported in their Result. The returned error is
// only set when ctx was done before some file was started.
//
// Paths naming the same file are hashed once on the pool; later spellings are
// resolved afterwards and hit the memo when one is configured.
func (h *Hasher) HashFiles(ctx context.Context, paths []string) ([]Result, error) {
	runID := uuid.New()
	start := time.Now()
	logging.VPrint(logging.DEBUG, "batch started", logging.LogFormat{
		"run":     runID,
		"files":   len(paths),
		"workers": h.workers,
	})

	var canceled int32
	startable := func(path string) (Result, bool) {
		if err := ctx.Err(); err != nil {
			atomic.StoreInt32(&canceled, 1)
			return Result{Path: path, Err: err}, false
		}
		return Result{}, true
	}

	done := cmap.New()
	keys := make([]string, len(paths))
	var repeats []int
	var wg sync.WaitGroup
	for i, path := range paths {
		key := canonicalPath(path)
		keys[i] = key
		if !done.SetIfAbsent(key, Result{Path: path, Err: errors.New("not started")}) {
			repeats = append(repeats, i)
			continue
		}

		path := path
		wg.Add(1)
		if err := h.pool.Submit(func() {
			defer wg.Done()
			if res, ok := startable(path); !ok {
				done.Set(key, res)
				return
			}
			done.Set(key, h.HashFile(path))
		}); err != nil {
			wg.Done()
			done.Set(key, Result{Path: path, Err: errors.Wrap(err, "submit task")})
		}
	}
	wg.Wait()

	results := make([]Result, len(paths))
	for i := range paths {
		v, _ := done.Get(keys[i])
		results[i] = v.(Result)
	}
	for _, i := range repeats {
		if res, ok := startable(paths[i]); !ok {
			results[i] = res
			continue
		}
		results[i] = h.HashFile(paths[i])
	}

	var failed int
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}
	logging.VPrint(logging.DEBUG, "batch finished", logging.LogFormat{
		"run":     runID,
		"files":   len(paths),
		"failed":  failed,
		"elapsed": time.Since(start),
	})
	if atomic.LoadInt32(&canceled) == 1 {
		return results, ctx.Err()
	}
	return results, nil
}

// HashFile hashes a single file on the calling goroutine.
func (h *Hasher) HashFile(path string) Result {
	res := Result{Path: path}

	fi, err := os.Stat(path)
	if err != nil {
		return h.fail(res, "read", errcode.IO(errors.Wrapf(err, "stat %s", path)))
	}
	if fi.IsDir() {
		return h.fail(res, "read", errcode.IO(errors.Errorf("%s is a directory", path)))
	}
	res.Size = fi.Size()

	key := memoKey(canonicalPath(path), fi)
	if h.cache != nil {
		if v, ok := h.cache.Get(key); ok {
			res.Digest, res.Cached = v.(sha256.Digest), true
			h.metrics.ObserveCacheHit()
			return h.recorded(res, fi)
		}
	}

	if err = h.checkSize(fi.Size()); err != nil {
		return h.fail(res, "size", errors.Wrapf(err, "%s: %d bytes", path, fi.Size()))
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return h.fail(res, "read", errcode.IO(errors.Wrapf(err, "read %s", path)))
	}
	if !h.keepNewline {
		data = TrimNewline(data)
	}

	begin := time.Now()
	res.Digest, err = sha256.Sum(data)
	if err != nil {
		return h.fail(res, "hash", err)
	}
	h.metrics.ObserveHash(int64(len(data)), time.Since(begin))

	if h.cache != nil {
		h.cache.Add(key, res.Digest)
	}
	return h.recorded(res, fi)
}

// recorded stores res in the digest store, if any.
func (h *Hasher) recorded(res Result, fi os.FileInfo) Result {
	if h.store == nil {
		return res
	}
	if err := h.record(res.Path, fi, res.Digest); err != nil {
		return h.fail(res, "store", err)
	}
	return res
}

func (h *Hasher) fail(res Result, stage string, err error) Result {
	h.metrics.ObserveError(stage)
	logging.VPrint(logging.WARN, "hash failed", logging.LogFormat{"path": res.Path, "stage": stage, "err": err})
	res.Err = err
	return res
}

func (h *Hasher) checkSize(size int64) error {
	if h.maxFileSize > 0 && size > h.maxFileSize {
		return ErrFileTooLarge
	}
	if size < memCheckThreshold {
		return nil
	}
	stat, err := mem.VirtualMemory()
	if err != nil {
		return errors.Wrap(err, "query available memory")
	}
	if uint64(size) > stat.Available {
		return ErrFileTooLarge
	}
	return nil
}

func (h *Hasher) record(path string, fi os.FileInfo, d sha256.Digest) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", path)
	}
	return h.store.Put(manifest.Record{
		Path:    abs,
		Digest:  d,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	})
}

// canonicalPath resolves path to a clean absolute path, so different
// spellings of one file share a key.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func memoKey(path string, fi os.FileInfo) string {
	return fmt.Sprintf("%s|%d|%d", path, fi.Size(), fi.ModTime().UnixNano())
}

// TrimNewline drops a single trailing '\n' from data.
func TrimNewline(data []byte) []byte {
	if n := len(data); n > 0 && data[n-1] == '\n' {
		return data[:n-1]
	}
	return data
}
