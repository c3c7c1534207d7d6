package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/catalogsync/internal/store"
)

// CleanupOptions holds flags for the cleanup command.
type CleanupOptions struct {
	*RootOptions
	WaitingDB string
	OlderThan time.Duration
}

// CleanupResult is the outcome of a cleanup.
type CleanupResult struct {
	Deleted int       `json:"deleted"`
	Failed  int       `json:"failed"`
	Cutoff  time.Time `json:"cutoff"`
}

// Summary returns the one-line cleanup summary.
func (r CleanupResult) Summary() string {
	return fmt.Sprintf("Summary: %d waiting drafts were deleted in total (%d failed to delete).", r.Deleted, r.Failed)
}

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CleanupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete drafts that have waited too long for their references",
		Long: `Delete waiting drafts queued before now minus --older-than from the
waiting database, together with their recorded dependencies.

Example:
  catalogsync cleanup --waiting-db ./waiting.db --older-than 168h`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.WaitingDB, "waiting-db", "", "SQLite database of waiting drafts; overrides the config")
	cmd.Flags().DurationVar(&opts.OlderThan, "older-than", 0, "minimum age of deleted drafts; overrides the config")

	return cmd
}

func runCleanup(opts *CleanupOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	if cmd.Flags().Changed("waiting-db") {
		cfg.WaitingDB = opts.WaitingDB
	}
	if cmd.Flags().Changed("older-than") {
		cfg.CleanupAge = opts.OlderThan
	}
	if cfg.WaitingDB == "" {
		_ = formatter.Error(ErrCodeConfig, "no waiting database configured", nil)
		return NewExitError(ExitCommandError, "no waiting database configured")
	}
	if cfg.CleanupAge <= 0 {
		_ = formatter.Error(ErrCodeConfig, "cleanup age must be positive", cfg.CleanupAge.String())
		return NewExitError(ExitCommandError, "cleanup age must be positive")
	}

	st, err := store.Open(cfg.WaitingDB)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open waiting database", err)
	}
	defer st.Close()

	res := CleanupResult{Cutoff: time.Now().UTC().Add(-cfg.CleanupAge)}
	formatter.VerboseLog("Deleting waiting drafts queued before %s", res.Cutoff.Format(time.RFC3339))

	res.Deleted, err = st.DeleteOlderThan(cmd.Context(), res.Cutoff)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitFailure, "cleanup failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	return formatter.Success(res.Summary())
}
