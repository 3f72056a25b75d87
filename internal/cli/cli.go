// Package cli wires the activation gate to the command line: flag parsing,
// layered configuration, logging, and the check and watch loops.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doublemover/activationgate/internal/model"
)

const version = "0.15.0"

// Execute runs the command line and returns the process exit code: 0 when
// the gate is closed, 1 when it is open, 2 on any usage or input error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	exitCode := model.ExitGateClosed
	root := newRootCmd(stdout, stderr, &exitCode)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprint(stderr, formatError(err))
		return model.ExitInputError
	}
	return exitCode
}

func formatError(err error) string {
	var ge *model.Error
	if errors.As(err, &ge) {
		return ge.FormatStderr()
	}
	return fmt.Sprintf("error: %v\n", err)
}

func newRootCmd(stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	root := &cobra.Command{
		Use:   "activation-gate",
		Short: "Evaluate deterministic activation triggers from local JSON snapshots",
		Long: `activation-gate decides whether queued work may be dispatched, using only
local JSON snapshots of open issues, open milestones, a remaining-task catalog,
an optional open-blockers list, and an optional governance overlay.

Run without a subcommand, it behaves like "check".

Exit semantics:
  0: evaluation succeeded and the gate is closed.
  1: evaluation succeeded and the gate is open.
  2: input or validation error (missing file, invalid JSON, malformed payload).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts := &checkOptions{}
	root.RunE = runCheck(opts, stdout, stderr, exitCode)
	opts.bind(root)

	root.AddCommand(newCheckCmd(stdout, stderr, exitCode))
	root.AddCommand(newWatchCmd(stdout, stderr, exitCode))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "activation-gate %s (%s)\n", version, model.ContractID)
		},
	})
	return root
}

func newCheckCmd(stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the gate once and print the report",
		Example: `  activation-gate check --issues-json tmp_open_issues_snapshot.json --milestones-json tmp_open_milestones_snapshot.json
  activation-gate check --issues-json tmp_open_issues_snapshot.json --milestones-json tmp_open_milestones_snapshot.json --issues-max-age-seconds 1800 --milestones-max-age-seconds 1800
  activation-gate check --issues-json tmp_open_issues_snapshot.json --milestones-json tmp_open_milestones_snapshot.json --open-blockers-json tmp_open_blockers.json
  activation-gate check --issues-json tmp_open_issues_snapshot.json --milestones-json tmp_open_milestones_snapshot.json --t4-new-scope-publish --format markdown`,
		Args: cobra.NoArgs,
		RunE: runCheck(opts, stdout, stderr, exitCode),
	}
	opts.bind(cmd)
	return cmd
}

func runCheck(opts *checkOptions, stdout, stderr io.Writer, exitCode *int) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		r, err := newRunner(cmd, opts, stdout, stderr)
		if err != nil {
			return err
		}
		code, err := r.evaluateOnce()
		*exitCode = code
		return err
	}
}

func newWatchCmd(stdout, stderr io.Writer, exitCode *int) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate the gate whenever an input snapshot changes",
		Long: `watch evaluates once, then re-evaluates every time one of the input
snapshots is written, printing one report per evaluation. Validation errors
are printed to stderr and watching continues. Stop with SIGINT or SIGTERM;
the exit code is that of the last evaluation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := newRunner(cmd, opts, stdout, stderr)
			if err != nil {
				return err
			}
			return r.watchUntilSignal(cmd.Context(), exitCode)
		},
	}
	opts.bind(cmd)
	return cmd
}
