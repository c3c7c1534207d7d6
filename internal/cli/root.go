package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/catalogsync/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath is the YAML settings file. Defaults to config.DefaultPath.
	ConfigPath string

	// EnvFile holds CATALOGSYNC_* variables that the process environment
	// has not set.
	EnvFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the catalogsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "catalogsync",
		Short: "Synchronize catalog drafts into a commerce backend",
		Long: `Synchronize types, product types, categories and products described in
YAML or JSON draft files into a commerce backend.

Drafts are matched to existing entities by key. Missing entities are created,
changed ones are updated with the minimal list of update actions, and drafts
referencing entities that do not exist yet wait until they are created.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultPath(), "settings file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "file of CATALOGSYNC_* variables")

	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCleanupCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// loadConfig reads the settings file and overlays the environment.
// Commands apply their own flags on top and then call Validate.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	lookup, err := config.Environ(opts.EnvFile)
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "failed to read env file", err)
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return cfg, WrapExitError(ExitCommandError, "invalid environment", err)
	}
	return cfg, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
