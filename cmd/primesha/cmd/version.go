package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"primesha.org/primesha/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		Args:              usageArgs(cobra.NoArgs),
		PersistentPreRunE: skipConfig,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "primesha version %s\n", version.GetVersion())
		},
	}
}
