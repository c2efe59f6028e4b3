package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)
	assert.Same(t, viper.GetViper(), loader.GetViper())
}

func TestLoadWithNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.Output.File)
}

func TestLoadWithValidYAMLFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
verbose: true
rendezvous:
  client_socket: /tmp/client
  server_socket: /tmp/server
output:
  file: /tmp/times.json
client:
  work_duration: 250ms
coordinator:
  pre_scripts:
    - echo pre
  post_scripts:
    - echo post-1
    - echo post-2
metrics:
  textfile: /tmp/interop.prom
`)

	loader := newTestLoader()
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, debugLevel, cfg.LogLevel)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/tmp/client", cfg.Rendezvous.ClientSocket)
	assert.Equal(t, "/tmp/server", cfg.Rendezvous.ServerSocket)
	assert.Equal(t, "/tmp/times.json", cfg.Output.File)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.WorkDuration)
	assert.Equal(t, []string{"echo pre"}, cfg.Coordinator.PreScripts)
	assert.Equal(t, []string{"echo post-1", "echo post-2"}, cfg.Coordinator.PostScripts)
	assert.Equal(t, "/tmp/interop.prom", cfg.Metrics.Textfile)
	assert.Equal(t, path, loader.GetConfigFileUsed())
}

func TestLoadWithMissingFile(t *testing.T) {
	_, err := newTestLoader().LoadWithFile("/non/existent/interop.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithInvalidValues(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")

	_, err := newTestLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadWithMalformedYAML(t *testing.T) {
	path := writeConfig(t, "rendezvous: [unclosed\n")

	_, err := newTestLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadWithoutValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("INTEROP_LOG_LEVEL", "loud")

	cfg, err := newTestLoader().LoadWithoutValidation()
	require.NoError(t, err)
	assert.Equal(t, "loud", cfg.LogLevel)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("INTEROP_RENDEZVOUS_CLIENT_SOCKET", "/tmp/env-client")
	t.Setenv("INTEROP_RENDEZVOUS_SERVER_SOCKET", "/tmp/env-server")
	t.Setenv("INTEROP_OUTPUT_FILE", "/tmp/env.json")
	t.Setenv("INTEROP_CLIENT_WORK_DURATION", "2s")

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-client", cfg.Rendezvous.ClientSocket)
	assert.Equal(t, "/tmp/env-server", cfg.Rendezvous.ServerSocket)
	assert.Equal(t, "/tmp/env.json", cfg.Output.File)
	assert.Equal(t, 2*time.Second, cfg.Client.WorkDuration)
}

func TestLoadFromCurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "interop.yaml"), []byte("log_level: warn\n"), 0o600))

	cfg, err := newTestLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := newTestLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.Equal(t, "/bin/sh", cfg.Coordinator.Shell)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, "/xdg/interop")
	assert.Equal(t, "/etc/interop", paths[len(paths)-1])
}

func TestGetResolvedConfig(t *testing.T) {
	loader := newTestLoader()
	_, err := loader.LoadWithFile(writeConfig(t, "verbose: true\n"))
	require.NoError(t, err)

	settings := loader.GetResolvedConfig()
	assert.Equal(t, true, settings["verbose"])
}
