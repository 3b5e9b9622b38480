package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"primesha.org/primesha/batch"
	errcode "primesha.org/primesha/errors"
	"primesha.org/primesha/logging"
	"primesha.org/primesha/manifest"
	"primesha.org/primesha/metrics"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]...",
		Short: "Verify files against their recorded digests",
		Long: `check rehashes files and compares them with the digest store. Without
arguments every recorded file is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := manifest.Open(a.cfg.Store.DBType, a.cfg.Store.Dir)
			if err != nil {
				return err
			}
			defer store.Close()

			paths, err := checkPaths(store, args)
			if err != nil {
				return err
			}
			m := metrics.New()
			results, err := a.hashFiles(paths, batch.WithMetrics(m))
			if err != nil {
				return err
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			var mismatched int
			for _, res := range results {
				if res.Err != nil {
					fmt.Fprintf(errOut, "primesha: %v\n", res.Err)
					continue
				}
				ok, err := store.Verify(res.Path, res.Digest)
				switch {
				case errors.Cause(err) == manifest.ErrRecordNotFound:
					fmt.Fprintf(out, "%s: NOT RECORDED\n", res.Path)
					mismatched++
				case err != nil:
					return err
				case ok:
					fmt.Fprintf(out, "%s: OK\n", res.Path)
				default:
					fmt.Fprintf(out, "%s: FAILED\n", res.Path)
					mismatched++
				}
			}
			a.writeMetrics(m)
			logging.VPrint(logging.INFO, "check finished", logging.LogFormat{
				"files":      len(results),
				"mismatched": mismatched,
			})

			if mismatched > 0 {
				return errcode.Mismatch(errors.Errorf("%d of %d files did not match", mismatched, len(results)))
			}
			return failure(results)
		},
	}
}

// checkPaths resolves args to absolute paths, or lists every recorded path.
func checkPaths(store *manifest.Store, args []string) ([]string, error) {
	if len(args) == 0 {
		records, err := store.List()
		if err != nil {
			return nil, err
		}
		paths := make([]string, len(records))
		for i, r := range records {
			paths[i] = r.Path
		}
		return paths, nil
	}
	paths := make([]string, len(args))
	for i, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, errcode.IO(errors.Wrapf(err, "resolve %s", arg))
		}
		paths[i] = abs
	}
	return paths, nil
}
