package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MeKo-Tech/interop/internal/coordinator"
	"github.com/MeKo-Tech/interop/internal/rendezvous"
	"github.com/MeKo-Tech/interop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCommand(t *testing.T) {
	assert.NotNil(t, clientCmd)
	assert.Equal(t, "client", clientCmd.Name())
	assert.True(t, clientCmd.DisableFlagParsing)
}

func TestClientWritesRecord(t *testing.T) {
	out := filepath.Join(t.TempDir(), "times.json")

	output, err := executeCommand(t, "client", "-f", out, "--", "https://server:4433/")
	require.NoError(t, err)
	assert.Equal(t, "Init done\nRunning\nDone\n", output)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := rendezvous.ReadRecords(f)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.LessOrEqual(t, records[0].Start, records[0].End)
}

func TestClientHelp(t *testing.T) {
	output, err := executeCommand(t, "client", "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "--socket")
	assert.Contains(t, output, "--file")
}

func TestClientInitFailure(t *testing.T) {
	output, err := executeCommand(t, "client", "-s", "/tmp/only-one")
	require.Error(t, err)
	assert.ErrorIs(t, err, rendezvous.ErrConfig)
	assert.NotContains(t, output, "Init done")
}

func TestClientBeginFailure(t *testing.T) {
	client, server := testutil.SocketPair(t)

	output, err := executeCommand(t, "client", "-s", client+","+server)
	require.Error(t, err)
	assert.ErrorIs(t, err, rendezvous.ErrIPC)
	assert.Contains(t, output, "Init done")
	assert.NotContains(t, output, "Running")
}

func TestClientWithCoordinatorAndMetrics(t *testing.T) {
	t.Cleanup(func() { resetFlags(rootCmd) })

	client, server := testutil.SocketPair(t)
	dir := testutil.SocketDir(t)
	out := filepath.Join(dir, "times.json")
	prom := filepath.Join(dir, "interop.prom")

	coord, err := coordinator.New(coordinator.Config{ClientSocket: client, ServerSocket: server},
		coordinator.WithRunner(coordinator.RunnerFunc(func(context.Context, string) error { return nil })))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	coordDone := make(chan error, 1)
	go func() { coordDone <- coord.Run(ctx) }()
	require.NoError(t, testutil.WaitForFile(server, 2*time.Second))

	output, err := executeCommand(t, "--metrics-file", prom, "client", "-s", client+","+server, "-f", out)
	require.NoError(t, err)
	assert.Equal(t, "Init done\nRunning\nDone\n", output)
	require.NoError(t, <-coordDone)

	metrics, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "interop_handshakes_total")
	assert.Contains(t, string(metrics), "interop_measured_interval_seconds")
}
