package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/catalogsync/internal/config"
)

// execute runs the root command with a config file and env file that do not
// exist, so only defaults and the given flags apply.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	dir := t.TempDir()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "absent.yaml"),
		"--env-file", filepath.Join(dir, "absent.env"),
	}, args...))

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "catalogsync", cmd.Use)
	assert.Contains(t, cmd.Long, "update actions")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"sync", "diff", "validate", "cleanup"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, config.DefaultPath(), configFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
}

func TestSyncCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	syncCmd, _, err := cmd.Find([]string{"sync"})
	require.NoError(t, err)

	for _, name := range []string{"backend", "state", "waiting-db", "batch-size", "workers", "allow-uuid-keys", "metrics-file"} {
		assert.NotNil(t, syncCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestCleanupCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	cleanupCmd, _, err := cmd.Find([]string{"cleanup"})
	require.NoError(t, err)

	olderThan := cleanupCmd.Flags().Lookup("older-than")
	require.NotNil(t, olderThan)
	assert.Equal(t, "0s", olderThan.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "validate", "category", "drafts.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "batch_size: 12\nworkers: 3\n")
	envPath := writeFile(t, dir, ".env", "CATALOGSYNC_BATCH_SIZE=7\n")

	cfg, err := loadConfig(&RootOptions{ConfigPath: cfgPath, EnvFile: envPath})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.BatchSize)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "batch_size: [1")

	_, err := loadConfig(&RootOptions{ConfigPath: cfgPath})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
