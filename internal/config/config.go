// Package config loads CLI settings.
//
// Settings come from a YAML file, then CATALOGSYNC_* environment variables
// (optionally read from a .env file), then command-line flags. Later
// sources win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/catalogsync/internal/backend"
	"github.com/roach88/catalogsync/internal/engine"
)

// Backend kinds.
const (
	BackendHTTP = "http"
	BackendFile = "file"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "CATALOGSYNC_"

// DefaultCleanupAge is the age after which cleanup removes waiting drafts.
const DefaultCleanupAge = 30 * 24 * time.Hour

// Config holds the CLI settings.
type Config struct {
	// Backend is BackendHTTP or BackendFile.
	Backend string `yaml:"backend"`

	// StateFile is the JSON file of the file backend.
	StateFile string `yaml:"state_file"`

	// WaitingDB is the SQLite database parking deferred drafts. Empty keeps
	// them in memory for the run.
	WaitingDB string `yaml:"waiting_db"`

	BatchSize     int           `yaml:"batch_size"`
	Workers       int           `yaml:"workers"`
	AllowUUIDKeys bool          `yaml:"allow_uuid_keys"`
	CleanupAge    time.Duration `yaml:"cleanup_age"`

	API API `yaml:"api"`
}

// API holds the REST backend settings.
type API struct {
	URL          string   `yaml:"url"`
	AuthURL      string   `yaml:"auth_url"`
	ProjectKey   string   `yaml:"project_key"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

// Credentials returns the OAuth2 settings of a.
func (a API) Credentials() backend.Credentials {
	return backend.Credentials{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		AuthURL:      a.AuthURL,
		Scopes:       a.Scopes,
	}
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Backend:    BackendFile,
		StateFile:  filepath.Join(xdg.DataHome, "catalogsync", "state.json"),
		BatchSize:  engine.DefaultBatchSize,
		CleanupAge: DefaultCleanupAge,
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/catalogsync/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "catalogsync", "config.yaml")
}

// Load reads path over Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LookupFunc reads one variable, like os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// Environ returns a LookupFunc reading the process environment, falling
// back to the variables of envFile. A missing envFile is ignored.
func Environ(envFile string) (LookupFunc, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		default:
			fileVars = vars
		}
	}
	return func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := fileVars[name]
		return v, ok
	}, nil
}

// ApplyEnv overlays CATALOGSYNC_* variables on cfg.
func (cfg *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("BACKEND", &cfg.Backend)
	str("STATE_FILE", &cfg.StateFile)
	str("WAITING_DB", &cfg.WaitingDB)
	str("API_URL", &cfg.API.URL)
	str("AUTH_URL", &cfg.API.AuthURL)
	str("PROJECT_KEY", &cfg.API.ProjectKey)
	str("CLIENT_ID", &cfg.API.ClientID)
	str("CLIENT_SECRET", &cfg.API.ClientSecret)

	if v, ok := lookup(EnvPrefix + "SCOPES"); ok {
		cfg.API.Scopes = strings.Fields(v)
	}
	if v, ok := lookup(EnvPrefix + "BATCH_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sBATCH_SIZE: %w", EnvPrefix, err)
		}
		cfg.BatchSize = n
	}
	if v, ok := lookup(EnvPrefix + "ALLOW_UUID_KEYS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sALLOW_UUID_KEYS: %w", EnvPrefix, err)
		}
		cfg.AllowUUIDKeys = b
	}
	return nil
}

// Validate reports settings that cannot work together.
func (cfg Config) Validate() error {
	var problems []string
	switch cfg.Backend {
	case BackendFile:
		if cfg.StateFile == "" {
			problems = append(problems, "state_file is required for the file backend")
		}
	case BackendHTTP:
		for name, v := range map[string]string{
			"api.url":           cfg.API.URL,
			"api.auth_url":      cfg.API.AuthURL,
			"api.project_key":   cfg.API.ProjectKey,
			"api.client_id":     cfg.API.ClientID,
			"api.client_secret": cfg.API.ClientSecret,
		} {
			if v == "" {
				problems = append(problems, name+" is required for the http backend")
			}
		}
	default:
		problems = append(problems, fmt.Sprintf("backend must be %q or %q, got %q", BackendHTTP, BackendFile, cfg.Backend))
	}
	if cfg.BatchSize < 0 {
		problems = append(problems, "batch_size must not be negative")
	}
	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}
