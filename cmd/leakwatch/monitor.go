package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/leakwatch/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewMonitorCmd creates the monitor command.
func NewMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Monitor the configured companies continuously",
		Long: `Monitor runs a scan cycle over every monitored company immediately and
then once per monitoring interval until interrupted. A company scanned in
the last six hours is skipped. Configuration edits made with the other
commands are picked up at the next cycle.

With --listen, a status API is served alongside the loop:
  GET /api/health    transport and uptime
  GET /api/history   last scan per company (?company=NAME for one)
  GET /api/runs      recent scan runs (?company=NAME&limit=N)
  GET /metrics       Prometheus metrics

Examples:
  leakwatch monitor
  leakwatch monitor --listen 127.0.0.1:9090
  leakwatch monitor --embedded-tor --require-tor`,
		Args: cobra.NoArgs,
		RunE: runMonitorCmd,
	}

	addTransportFlags(cmd)
	cmd.Flags().StringP("listen", "l", "",
		"Serve the status API and metrics on this address (e.g., 127.0.0.1:9090)")

	return cmd
}

// runMonitorCmd executes the monitor command.
func runMonitorCmd(cmd *cobra.Command, _ []string) error {
	opts, err := getAppOptions(cmd)
	if err != nil {
		return err
	}
	listen, err := cmd.Flags().GetString("listen")
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

	return a.serve(ctx, listen)
}

// serve runs the monitoring loop and, when addr is set, the status server.
// Either one failing stops the other.
func (a *app) serve(ctx context.Context, addr string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.monitor.Run(ctx)
	})

	if addr != "" {
		srv := server.New(addr,
			server.WithHistory(a.history),
			server.WithRuns(a.db),
			server.WithMetrics(a.metrics),
			server.WithTransport(a.transport.String()),
			server.WithLogger(a.logger.Logger),
		)
		g.Go(func() error {
			return srv.Serve(ctx)
		})
	}

	return g.Wait()
}
