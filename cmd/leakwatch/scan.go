package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <company>",
		Short: "Run one ad-hoc scan for a company",
		Long: `Scan searches every configured source for one company right now,
classifies what it finds and archives, reports and alerts exactly like a
scheduled cycle would. The company does not need to be on the monitored
list, and the six-hour skip window does not apply. The scan is recorded in
the history.

Examples:
  # Scan through the configured Tor proxy
  leakwatch scan "Acme Corp"

  # Start an embedded Tor daemon for this scan
  leakwatch scan --embedded-tor "Acme Corp"

  # Print the result as JSON or Markdown instead of text
  leakwatch scan --json "Acme Corp"
  leakwatch scan --markdown "Acme Corp"`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	addTransportFlags(cmd)
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	cmd.Flags().Bool("markdown", false, "Print the result as Markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	opts, err := getAppOptions(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(runContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	run, scanErr := a.monitor.ScanCompany(ctx, args[0])
	if run == nil {
		return scanErr
	}

	writer, err := scanOutputWriter(cmd)
	if err != nil {
		return err
	}
	if _, err := writer.Write(report.NewSummary(run)); err != nil {
		return fmt.Errorf("failed to write scan result: %w", err)
	}

	if scanErr != nil {
		if run.Outcome == model.OutcomeFailed {
			return scanErr
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", scanErr)
	}
	return nil
}

func scanOutputWriter(cmd *cobra.Command) (report.Writer, error) {
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return report.NewJSONWriter(out, report.WithPrettyPrint()), nil
	case markdownOutput:
		return report.NewMarkdownWriter(out), nil
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd))), nil
	}
}

// runContext returns the command context, falling back to Background for
// commands executed without one.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
