// Command grader answers vehicle reliability questions from the command line.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zoobzio/grader"
)

var version = "0.1.0"

// Exit codes.
const (
	exitFailure    = 1
	exitValidation = 2
	exitNotFound   = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	a := &app{stdout: stdout, stderr: stderr, getenv: getenv}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		code := exitCode(err)
		if a.logger != nil {
			a.logger.Error("command failed", "error", err.Error(), "exit_code", code)
		}
		fmt.Fprintln(stderr, err)
		return code
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "grader",
		Short:         "Look up reliability grades and complaint data for vehicles",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitError(exitValidation, "%v", err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "YAML config file")
	flags.StringVar(&a.flags.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newYearsCmd(a),
		newMakesCmd(a),
		newModelsCmd(a),
		newHealthCmd(a),
		newResolveCmd(a),
		newScoreCmd(a),
		newDetailsCmd(a),
		newFilterCmd(a),
		newTopCmd(a),
		newTrimsCmd(a),
		newHistoryCmd(a),
		newFilesCmd(a),
	)
	return root
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var ee *exitErr
	switch {
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, grader.ErrValidation):
		return exitValidation
	case errors.Is(err, grader.ErrNotFound):
		return exitNotFound
	default:
		return exitFailure
	}
}
