package cmd

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"primesha.org/primesha/sha256"
)

func newConstantsCmd() *cobra.Command {
	var verify, dump bool
	cmd := &cobra.Command{
		Use:   "constants",
		Short: "Print the round constants derived from the first 64 primes",
		Long: `constants derives the initial hash value from the square roots of the
first 8 primes and the round constants from the cube roots of the first 64
primes, and prints both tables.`,
		Args:              usageArgs(cobra.NoArgs),
		PersistentPreRunE: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c := sha256.Derived()
			if dump {
				spew.Fdump(out, c)
			} else {
				printWords(out, "H", c.H[:])
				printWords(out, "K", c.K[:])
			}
			if !verify {
				return nil
			}
			if err := sha256.VerifyConstants(); err != nil {
				return err
			}
			fmt.Fprintln(out, "derived constants match the published tables")
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "compare the derived constants with the published tables")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the constants with their Go types")
	return cmd
}

func printWords(out io.Writer, name string, words []uint32) {
	for i := 0; i < len(words); i += 8 {
		fmt.Fprintf(out, "%s[%02d]", name, i)
		for _, w := range words[i:min(i+8, len(words))] {
			fmt.Fprintf(out, " %08x", w)
		}
		fmt.Fprintln(out)
	}
}
