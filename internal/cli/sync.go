package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/catalogsync/internal/config"
	"github.com/roach88/catalogsync/internal/stats"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	backendFlags

	BatchSize     int
	Workers       int
	AllowUUIDKeys bool

	// MetricsFile, if set, receives the run metrics in the Prometheus text
	// format.
	MetricsFile string
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <kind> <drafts-file>",
		Short: "Create or update entities from a draft file",
		Long: `Synchronize the drafts of one kind into the backend.

Kinds: type, product-type, category, product. Drafts are processed in
batches; drafts referencing entities of the same kind that do not exist yet
wait until those are created, and are failed if they never are.

Example:
  catalogsync sync category ./categories.yaml --backend file --state ./state.json
  catalogsync sync product ./products.yaml --waiting-db ./waiting.db --format json`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, args[0], args[1], cmd)
		},
	}

	opts.backendFlags.register(cmd)
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "drafts per batch; overrides the config")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent drafts per batch (0 = one per draft)")
	cmd.Flags().BoolVar(&opts.AllowUUIDKeys, "allow-uuid-keys", false, "treat UUID-shaped reference keys as ids")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	return cmd
}

// newLogger creates the text logger of a command. Debug is enabled in
// verbose mode.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// resolveConfig layers the command flags over the settings file and the
// environment.
func (o *SyncOptions) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig(o.RootOptions)
	if err != nil {
		return cfg, err
	}
	o.backendFlags.apply(cmd, &cfg)
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = o.BatchSize
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = o.Workers
	}
	if cmd.Flags().Changed("allow-uuid-keys") {
		cfg.AllowUUIDKeys = o.AllowUUIDKeys
	}
	if err := cfg.Validate(); err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid config", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func runSync(opts *SyncOptions, kind, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)
	slog.SetDefault(logger)

	if err := checkKind(kind); err != nil {
		return loadFailure(formatter, err)
	}
	cfg, err := opts.resolveConfig(cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Error("error closing waiting store", "error", closeErr)
		}
	}()

	r := &runner{cfg: cfg, log: logger}
	reg := prometheus.NewRegistry()
	if opts.MetricsFile != "" {
		r.metrics = stats.NewCollector()
		reg.MustRegister(r.metrics)
	}

	slog.Info("sync starting", "kind", kind, "file", path, "backend", cfg.Backend)
	st, runErr := r.run(ctx, kind, path, sess.backend, sess.store)
	if st == nil {
		return loadFailure(formatter, runErr)
	}

	// Partial progress is kept even when the run was interrupted.
	if err := sess.save(); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to save state", err)
	}
	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, reg); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "sync error", runErr)
	}
	if err := outputSyncResult(formatter, r, st); err != nil {
		return err
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "sync interrupted", runErr)
	}
	if failed := st.Snapshot().Failed; failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d drafts failed to sync", failed))
	}
	return nil
}

func outputSyncResult(f *OutputFormatter, r *runner, st *stats.Statistics) error {
	if f.Format == "json" {
		return f.Success(r.result(st))
	}
	return f.Success(st.Report())
}
