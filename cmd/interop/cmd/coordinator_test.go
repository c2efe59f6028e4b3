package cmd

import (
	"testing"
	"time"

	"github.com/MeKo-Tech/interop/internal/rendezvous"
	"github.com/MeKo-Tech/interop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorCommand(t *testing.T) {
	assert.Equal(t, "coordinator", coordinatorCmd.Name())
	for _, name := range []string{"client", "server", "pre", "post"} {
		assert.NotNil(t, coordinatorCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestCoordinatorCommandRequiresSockets(t *testing.T) {
	_, err := executeCommand(t, "coordinator")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socket paths are required")
}

func TestCoordinatorCommandRun(t *testing.T) {
	t.Cleanup(func() { resetFlags(coordinatorCmd) })

	client, server := testutil.SocketPair(t)

	type result struct {
		output string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		out, err := executeCommand(t, "coordinator",
			"--client", client, "--server", server,
			"--pre", "echo pre-script", "--post", "echo post-script")
		done <- result{out, err}
	}()
	require.NoError(t, testutil.WaitForFile(server, 5*time.Second))

	tm, err := rendezvous.New(rendezvous.Config{LocalPath: client, PeerPath: server})
	require.NoError(t, err)
	defer tm.Close()
	require.NoError(t, tm.Begin())
	require.NoError(t, tm.End())

	res := <-done
	require.NoError(t, res.err)
	assert.Contains(t, res.output, "pre-script")
	assert.Contains(t, res.output, "post-script")
}
