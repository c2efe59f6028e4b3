package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetCommandTree(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd to its default so bound viper keys
// do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
}

// resetCommandTree clears flags left over from earlier executions, including
// the lazily added help flags.
func resetCommandTree(cmd *cobra.Command) {
	resetFlags(cmd)
	for _, sub := range cmd.Commands() {
		resetCommandTree(sub)
	}
}

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "interop", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Same(t, rootCmd, GetRootCommand())
}

func TestRootCommandHelp(t *testing.T) {
	output, err := executeCommand(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "Unix datagram sockets")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "Usage:")
}

func TestRootCommandHelpDoesNotLeak(t *testing.T) {
	_, err := executeCommand(t, "--help")
	require.NoError(t, err)

	output, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "interop version dev")
	assert.NotContains(t, output, "Available Commands:")
}

func TestRootCommandVersion(t *testing.T) {
	t.Cleanup(func() { resetFlags(rootCmd) })

	output, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "interop version dev")
}

func TestRootCommandSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, expected := range []string{"client", "coordinator", "config", "report"} {
		assert.Contains(t, names, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, err := executeCommand(t, "--no-such-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestGetConfigDefaults(t *testing.T) {
	cfg := GetConfig()
	require.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.LogLevel)
	assert.NotNil(t, GetConfigLoader())
}
