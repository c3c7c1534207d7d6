package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/catalogsync/internal/canonical"
	"github.com/roach88/catalogsync/internal/config"
	"github.com/roach88/catalogsync/internal/waiting"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	backendFlags

	AllowUUIDKeys bool
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <kind> <drafts-file>",
		Short: "Show the writes a sync would make",
		Long: `Compute the creations and update actions a sync of the draft file would
perform, without changing the backend.

With the file backend the plan is applied to an in-memory copy of the state,
so drafts waiting on references created earlier in the file are planned too.
With the http backend nothing is written, and such drafts are reported as
failures.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], args[1], cmd)
		},
	}

	opts.backendFlags.register(cmd)
	cmd.Flags().BoolVar(&opts.AllowUUIDKeys, "allow-uuid-keys", false, "treat UUID-shaped reference keys as ids")

	return cmd
}

func runDiff(opts *DiffOptions, kind, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	if err := checkKind(kind); err != nil {
		return loadFailure(formatter, err)
	}
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	opts.backendFlags.apply(cmd, &cfg)
	if cmd.Flags().Changed("allow-uuid-keys") {
		cfg.AllowUUIDKeys = opts.AllowUUIDKeys
	}
	// Parked drafts of a dry run must not outlive it.
	cfg.WaitingDB = ""
	if err := cfg.Validate(); err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	defer sess.Close()

	r := &runner{
		cfg:       cfg,
		log:       logger,
		plan:      &plan{},
		applyPlan: cfg.Backend == config.BackendFile,
	}
	logger.Debug("planning", "kind", kind, "file", path, "apply_to_copy", r.applyPlan)

	st, runErr := r.run(ctx, kind, path, sess.backend, waiting.NewMemory())
	if st == nil {
		return loadFailure(formatter, runErr)
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "diff error", runErr)
	}

	res := r.result(st)
	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	if err := writePlan(formatter.Writer, res); err != nil {
		slog.Error("write plan", "error", err)
		return WrapExitError(ExitCommandError, "failed to write plan", err)
	}
	return nil
}

// writePlan prints one line per planned write, followed by the canonical
// JSON of each update action, then a summary line.
func writePlan(w io.Writer, res result) error {
	creates, updates := 0, 0
	for _, c := range res.Changes {
		switch c.Operation {
		case "create":
			creates++
			fmt.Fprintf(w, "+ %s\n", c.Key)
		case "update":
			updates++
			fmt.Fprintf(w, "~ %s\n", c.Key)
			for _, a := range c.Actions {
				line, err := canonical.Marshal(a)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "! %s: %s\n", f.Key, f.Error)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "? %s\n", warn)
	}

	unchanged := max(res.Processed-creates-updates-res.Failed, 0)
	_, err := fmt.Fprintf(w, "Plan: %d to create, %d to update, %d unchanged, %d failed.\n",
		creates, updates, unchanged, res.Failed)
	return err
}
