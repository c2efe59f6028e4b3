package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.NotEmpty(t, root)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}

func TestGetProjectRootValidated(t *testing.T) {
	root, err := GetProjectRootValidated()
	require.NoError(t, err)
	assert.True(t, DirExists(filepath.Join(root, "internal")))
}

func TestValidateProjectRootMissingGoMod(t *testing.T) {
	err := ValidateProjectRoot(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "go.mod not found")
}

func TestSocketPairFitsSunPath(t *testing.T) {
	client, server := SocketPair(t)
	assert.NotEqual(t, client, server)
	assert.Less(t, len(client), 108)
	assert.Less(t, len(server), 108)
	assert.True(t, DirExists(filepath.Dir(client)))
}

func TestWaitForFile(t *testing.T) {
	dir := SocketDir(t)
	path := filepath.Join(dir, "late")

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = os.WriteFile(path, nil, 0o600)
	}()
	require.NoError(t, WaitForFile(path, time.Second))

	err := WaitForFile(filepath.Join(dir, "never"), 20*time.Millisecond)
	assert.Error(t, err)
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists("/non/existent/file"))
	assert.False(t, DirExists("/non/existent/dir"))
}
