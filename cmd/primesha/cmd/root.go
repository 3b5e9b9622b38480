// Package cmd implements the primesha command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"primesha.org/primesha/batch"
	"primesha.org/primesha/config"
	errcode "primesha.org/primesha/errors"
	"primesha.org/primesha/logging"
	"primesha.org/primesha/sha256"
)

// app is the state of one invocation.
type app struct {
	ctx   context.Context
	flags globalFlags
	cfg   *config.Config
}

// Execute runs the command line with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(&app{ctx: ctx})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	c, err := root.ExecuteC()
	if err == nil {
		return errcode.ExitOK
	}
	code := errcode.ExitCode(err)
	fmt.Fprintf(stderr, "%s: %v\n", root.Name(), err)
	var bad *badInvocation
	if errors.As(err, &bad) {
		fmt.Fprint(stderr, c.UsageString())
	}
	logging.VPrint(logging.DEBUG, "command failed", logging.LogFormat{"code": code, "err": err})
	return code
}

// badInvocation marks argument and flag errors, the ones answered with the
// usage text.
type badInvocation struct {
	err error
}

func (e *badInvocation) Error() string { return e.err.Error() }
func (e *badInvocation) Cause() error  { return e.err }
func (e *badInvocation) Unwrap() error { return e.err }

func usageError(err error) error {
	if err == nil {
		return nil
	}
	return errcode.Usage(&badInvocation{err: err})
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(validate(cmd, args))
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "primesha <file>",
		Short: "SHA-256 digests from first-principles constants",
		Long: `primesha prints the message stored in <file>, with a single trailing
newline dropped, followed by its SHA-256 digest in lowercase hex.`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.flags.loadConfig()
			if err != nil && !cmd.HasParent() {
				// printing a message needs no config
				logging.CPrint(logging.WARN, "fail on loading config", logging.LogFormat{"err": err})
				return nil
			}
			a.cfg = cfg
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printMessage(cmd.OutOrStdout(), args[0])
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})
	a.flags.register(root)

	root.AddCommand(newHashCmd(a))
	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newConstantsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) printMessage(out io.Writer, path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errcode.IO(errors.Wrap(err, "read message"))
	}
	msg := batch.TrimNewline(data)
	digest, err := sha256.Sum(msg)
	if err != nil {
		return err
	}
	logging.VPrint(logging.INFO, "message hashed", logging.LogFormat{"path": path, "size": len(msg)})
	fmt.Fprintf(out, "Message:\n%s\nHash:\n%s\n", msg, digest)
	return nil
}

// skipConfig replaces the config loading of commands that need none.
func skipConfig(*cobra.Command, []string) error {
	return nil
}
