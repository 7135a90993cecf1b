package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/extract"
	leaklog "github.com/nao1215/leakwatch/internal/log"
	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/monitor"
	"github.com/nao1215/leakwatch/internal/storage"
	"github.com/nao1215/leakwatch/internal/tor"
	"github.com/spf13/cobra"
)

// appOptions are the command-line switches shared by scan and monitor.
type appOptions struct {
	embeddedTor bool
	requireTor  bool
}

// addTransportFlags registers the Tor flags on a scanning command.
func addTransportFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("embedded-tor", false,
		"Start an embedded Tor daemon instead of using tor_proxy_host:tor_proxy_port")
	cmd.Flags().Bool("require-tor", false,
		"Fail instead of continuing over a direct connection when Tor is unusable")
}

func getAppOptions(cmd *cobra.Command) (appOptions, error) {
	embedded, err := cmd.Flags().GetBool("embedded-tor")
	if err != nil {
		return appOptions{}, err
	}
	require, err := cmd.Flags().GetBool("require-tor")
	if err != nil {
		return appOptions{}, err
	}
	return appOptions{embeddedTor: embedded, requireTor: require}, nil
}

// app holds the components of a scanning process. Close releases them in
// reverse order of creation.
type app struct {
	console   io.Writer
	store     *config.Store
	logger    *leaklog.Logger
	metrics   *metrics.Metrics
	transport *tor.Transport
	embedded  *tor.EmbeddedTor
	db        *database.LeakDB
	history   *storage.HistoryStore
	monitor   *monitor.Monitor
}

// newApp performs the startup sequence. Errors returned here are
// startup-fatal; everything that can degrade does so with a warning.
func newApp(ctx context.Context, cmd *cobra.Command, opts appOptions) (_ *app, err error) {
	a := &app{console: cmd.ErrOrStderr()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.store, err = config.OpenStore(getConfigPath(cmd), config.WithEnvOverrides(true))
	if err != nil {
		return nil, err
	}
	cfg := a.store.Snapshot()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	a.logger, err = leaklog.Setup(leaklog.Options{
		Console: a.console,
		Verbose: getVerboseFlag(cmd),
		File:    cfg.ResolvedLogFile(),
	})
	if err != nil {
		return nil, err
	}
	logger := a.logger.Logger
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "path", a.store.Path(), "companies", len(cfg.CompaniesToMonitor))

	if err := cfg.CheckNotifications(); err != nil {
		logger.Warn("notification settings are incomplete; affected alerts will fail", "error", err)
	}
	for _, issue := range tor.AuditSites(cfg.DarkWebSites) {
		logger.Warn("dark web site will not be reachable", "url", issue.URL, "problem", string(issue.Problem))
	}

	recognizer := extract.NewProseRecognizer(extract.DefaultRecognizerLimit)
	if err := recognizer.Provision(); err != nil {
		return nil, err
	}

	if err := a.connect(ctx, cfg, opts); err != nil {
		return nil, err
	}

	a.metrics = metrics.New()

	vault, err := storage.OpenVault(cfg.ResolvedKeyFile())
	if err != nil {
		return nil, err
	}

	dbOpts := database.DefaultOptions()
	dbOpts.Metrics = a.metrics
	a.db, err = database.Open(cfg.ResolvedDatabaseDir(), dbOpts)
	if err != nil {
		return nil, err
	}

	leakStore := storage.NewLeakStore(vault, cfg.ResolvedDataDir(), cfg.ResolvedReportsDir(),
		storage.WithStoreLogger(logger),
		storage.WithStoreMetrics(a.metrics),
	)
	a.history = storage.NewHistoryStore(cfg.HistoryFile(),
		storage.WithHistoryLogger(logger),
		storage.WithHistoryMetrics(a.metrics),
	)

	scanner := monitor.NewPipelineScanner(a.transport.HTTPClient(), leakStore,
		monitor.WithExtractor(extract.New(
			extract.WithRecognizer(recognizer),
			extract.WithLogger(logger),
		)),
		monitor.WithIndex(a.db),
		monitor.WithEmailDialer(a.transport.DialContext),
		monitor.WithWebhookClient(a.transport.HTTPClient()),
		monitor.WithScannerLogger(logger),
		monitor.WithScannerMetrics(a.metrics),
	)
	a.monitor = monitor.New(&reloadingConfig{store: a.store, logger: logger}, a.history, scanner,
		monitor.WithLogger(logger),
		monitor.WithMetrics(a.metrics),
		monitor.WithRunRecorder(a.db),
	)

	logger.Info("leakwatch ready",
		"transport", a.transport.String(),
		"anonymized", a.transport.Anonymized(),
		"data_dir", cfg.ResolvedDataDir(),
	)
	return a, nil
}

// connect picks the route for all outgoing requests.
func (a *app) connect(ctx context.Context, cfg *config.Config, opts appOptions) error {
	logger := a.logger.Logger
	proxy := cfg.TorProxyAddress()

	if opts.embeddedTor || cfg.UseEmbeddedTor {
		fmt.Fprintln(a.console, "Starting embedded Tor daemon...")
		fmt.Fprintln(a.console, "This may take 1-3 minutes while Tor bootstraps and connects to the network.")

		a.embedded = tor.NewEmbeddedTor(
			tor.WithStartupTimeout(config.DefaultTorStartupTimeout),
			tor.WithEmbeddedLogger(logger),
		)
		if err := a.embedded.Start(ctx); err != nil {
			a.embedded = nil
			if opts.requireTor {
				return fmt.Errorf("failed to start embedded Tor: %w", err)
			}
			logger.Warn("failed to start embedded Tor, trying configured proxy", "error", err)
		} else {
			proxy = a.embedded.SocksAddr()
		}
	}

	connectOpts := []tor.ConnectOption{
		tor.WithLogger(logger),
		tor.WithRequireTor(opts.requireTor),
	}
	if cfg.VerifyTorExit {
		connectOpts = append(connectOpts, tor.WithExitCheck(tor.DefaultExitCheckURL))
	}

	transport, err := tor.Connect(ctx, proxy, cfg.Timeout(), connectOpts...)
	if err != nil {
		return err
	}
	a.transport = transport
	return nil
}

// Close closes the index, stops the embedded daemon and closes the log file.
func (a *app) Close() {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.embedded != nil {
		errs = append(errs, a.embedded.Stop())
	}
	if err := errors.Join(errs...); err != nil && a.logger != nil {
		a.logger.Error("failed to release resources", "error", err)
	}
	if a.logger != nil {
		_ = a.logger.Close() //nolint:errcheck // nothing left to report to
	}
}

// reloadingConfig re-reads the configuration file before each snapshot so
// edits made by other leakwatch invocations reach a running monitor.
type reloadingConfig struct {
	store  *config.Store
	logger *slog.Logger
}

// Snapshot implements monitor.ConfigSource.
func (r *reloadingConfig) Snapshot() *config.Config {
	changed, err := r.store.Reload()
	switch {
	case err != nil && !errors.Is(err, config.ErrConfigNotFound):
		r.logger.Warn("failed to reload configuration, keeping the previous one", "error", err)
	case changed:
		r.logger.Info("configuration reloaded", "path", r.store.Path())
	}
	return r.store.Snapshot()
}
