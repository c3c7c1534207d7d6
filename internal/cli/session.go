package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/catalog"
	"github.com/roach88/catalogsync/internal/config"
	"github.com/roach88/catalogsync/internal/store"
	"github.com/roach88/catalogsync/internal/waiting"
)

// backendFlags are the settings every backend-facing command can override.
type backendFlags struct {
	Backend   string
	StateFile string
	WaitingDB string
}

func (f *backendFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Backend, "backend", "", "backend kind (http|file); overrides the config")
	cmd.Flags().StringVar(&f.StateFile, "state", "", "JSON state file of the file backend")
	cmd.Flags().StringVar(&f.WaitingDB, "waiting-db", "", "SQLite database for drafts waiting on references")
}

func (f *backendFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("backend") {
		cfg.Backend = f.Backend
	}
	if cmd.Flags().Changed("state") {
		cfg.StateFile = f.StateFile
	}
	if cmd.Flags().Changed("waiting-db") {
		cfg.WaitingDB = f.WaitingDB
	}
}

// session holds the backend and waiting store of one command.
type session struct {
	cfg     config.Config
	backend catalog.Backend
	store   waiting.Store

	// memory is set for the file backend.
	memory *catalog.MemoryBackend

	closers []func() error
}

// openSession connects to the configured backend and waiting store.
func openSession(ctx context.Context, cfg config.Config) (*session, error) {
	s := &session{cfg: cfg}

	switch cfg.Backend {
	case config.BackendFile:
		state, err := catalog.LoadState(cfg.StateFile)
		if err != nil {
			return nil, err
		}
		s.memory = catalog.NewMemoryBackend(state)
		s.backend = s.memory.Backend()
		slog.Debug("state loaded", "path", cfg.StateFile)
	default:
		client := backend.NewHTTPClient(ctx, cfg.API.Credentials())
		s.backend = catalog.NewHTTPBackend(client, cfg.API.URL, cfg.API.ProjectKey)
		slog.Debug("using http backend", "url", cfg.API.URL, "project", cfg.API.ProjectKey)
	}

	if cfg.WaitingDB != "" {
		st, err := store.Open(cfg.WaitingDB)
		if err != nil {
			return nil, err
		}
		s.store = st
		s.closers = append(s.closers, st.Close)
		slog.Debug("waiting store ready", "path", cfg.WaitingDB)
	} else {
		s.store = waiting.NewMemory()
	}
	return s, nil
}

// save writes the file backend state back. It is a no-op for http.
func (s *session) save() error {
	if s.memory == nil {
		return nil
	}
	if err := catalog.SaveState(s.cfg.StateFile, s.memory.State()); err != nil {
		return err
	}
	slog.Debug("state saved", "path", s.cfg.StateFile)
	return nil
}

// Close releases the waiting store.
func (s *session) Close() error {
	var err error
	for _, c := range s.closers {
		err = multierr.Append(err, c())
	}
	return err
}
