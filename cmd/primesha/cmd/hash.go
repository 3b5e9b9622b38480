package cmd

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	hex "github.com/tmthrgd/go-hex"
	"primesha.org/primesha/batch"
	"primesha.org/primesha/cache"
	"primesha.org/primesha/config"
	errcode "primesha.org/primesha/errors"
	"primesha.org/primesha/hashutil"
	"primesha.org/primesha/logging"
	"primesha.org/primesha/manifest"
	"primesha.org/primesha/metrics"
	"primesha.org/primesha/sha256"
)

type hashFlags struct {
	workers     int
	keepNewline bool
	record      bool
	json        bool
	format      string
}

// Output formats of `hash`. The composite ones are derived from the file
// digest: sha256d is sha256(sha256(file)), hash160 is ripemd160(sha256(file)).
const (
	formatSha256  = "sha256"
	formatSha256d = "sha256d"
	formatHash160 = "hash160"
)

func formatDigest(format string, d sha256.Digest) string {
	switch format {
	case formatSha256d:
		return hex.EncodeToString(hashutil.Sha256(d[:]))
	case formatHash160:
		return hex.EncodeToString(hashutil.Ripemd160(d[:]))
	default:
		return d.String()
	}
}

func validFormat(format string) bool {
	switch format {
	case formatSha256, formatSha256d, formatHash160:
		return true
	}
	return false
}

// jsonResult is one entry of `hash --json`.
type jsonResult struct {
	Path   string `json:"path"`
	Digest string `json:"digest,omitempty"`
	Size   int64  `json:"size"`
	Cached bool   `json:"cached,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newHashCmd(a *app) *cobra.Command {
	f := new(hashFlags)
	cmd := &cobra.Command{
		Use:   "hash <file>...",
		Short: "Digest files concurrently",
		Long: `hash prints "<digest>  <file>" for every file, like sha256sum. Unreadable
files are reported on stderr and make the command fail once all files were
processed.`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(f.format) {
				return usageError(errors.Errorf("unknown format %q", f.format))
			}
			if cmd.Flags().Changed("workers") {
				a.cfg.Worker.PoolSize = f.workers
			}
			if f.keepNewline {
				a.cfg.Worker.KeepNewline = true
			}
			if err := config.CheckConfig(a.cfg); err != nil {
				return usageError(err)
			}

			m := metrics.New()
			opts := []batch.Option{
				batch.WithMetrics(m),
				batch.WithCache(cache.NewCCache(a.cfg.Cache.MaxEntries)),
			}
			if f.record {
				store, err := manifest.Open(a.cfg.Store.DBType, a.cfg.Store.Dir)
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, batch.WithStore(store))
			}

			results, err := a.hashFiles(args, opts...)
			if err != nil {
				return err
			}
			if f.json {
				if err = writeJSON(cmd.OutOrStdout(), f.format, results); err != nil {
					return err
				}
			} else {
				writeSums(cmd.OutOrStdout(), cmd.ErrOrStderr(), f.format, results)
			}
			a.writeMetrics(m)
			return failure(results)
		},
	}
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "number of files hashed in parallel, 0 for one per CPU")
	cmd.Flags().BoolVar(&f.keepNewline, "keep-newline", false, "hash files as is, without dropping a trailing newline")
	cmd.Flags().BoolVar(&f.record, "record", false, "record the digests in the digest store")
	cmd.Flags().BoolVar(&f.json, "json", false, "print results as JSON")
	cmd.Flags().StringVar(&f.format, "format", formatSha256, "digest to print (sha256, sha256d, hash160)")
	return cmd
}

func (a *app) hashFiles(paths []string, opts ...batch.Option) ([]batch.Result, error) {
	hasher, err := batch.NewHasher(a.cfg.Worker, opts...)
	if err != nil {
		return nil, err
	}
	defer hasher.Close()
	return hasher.HashFiles(a.ctx, paths)
}

func (a *app) writeMetrics(m *metrics.Metrics) {
	if err := m.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		logging.CPrint(logging.WARN, "fail on writing metrics", logging.LogFormat{"err": err})
	}
}

func writeSums(out, errOut io.Writer, format string, results []batch.Result) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(errOut, "primesha: %v\n", res.Err)
			continue
		}
		fmt.Fprintf(out, "%s  %s\n", formatDigest(format, res.Digest), res.Path)
	}
}

func writeJSON(out io.Writer, format string, results []batch.Result) error {
	list := make([]jsonResult, len(results))
	for i, res := range results {
		list[i] = jsonResult{Path: res.Path, Size: res.Size, Cached: res.Cached}
		if res.Err != nil {
			list[i].Error = res.Err.Error()
		} else {
			list[i].Digest = formatDigest(format, res.Digest)
		}
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode results")
	}
	_, err = fmt.Fprintf(out, "%s\n", b)
	return err
}

// failure summarizes failed results with the exit code of the first one.
func failure(results []batch.Result) error {
	var first error
	var failed int
	for _, res := range results {
		if res.Err == nil {
			continue
		}
		if first == nil {
			first = res.Err
		}
		failed++
	}
	if first == nil {
		return nil
	}
	return errcode.WithCode(errcode.ExitCode(first), errors.Errorf("%d of %d files failed", failed, len(results)))
}
