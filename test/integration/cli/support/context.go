package support

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	WorkingDir string
	TempDir    string
	EnvVars    []string

	// Rendezvous endpoints and the client's timing file
	ClientSocket string
	ServerSocket string
	OutputFile   string

	// Background coordinator
	CoordinatorCmd    *exec.Cmd
	CoordinatorOutput *syncBuffer
	CoordinatorDone   chan error
	coordinatorCancel context.CancelFunc

	// Test artifacts
	CreatedFiles       []string
	CreatedDirectories []string
}

// syncBuffer is a bytes.Buffer safe for a writing process and a reading step.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	// Get current working directory
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Look for go.mod file to identify project root
	currentDir := workingDir
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "go.mod")); err == nil {
			workingDir = currentDir
			break
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	// Socket paths are limited to 107 bytes, so keep the directory short.
	tempDir, err := os.MkdirTemp("", "interop-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		WorkingDir:         workingDir,
		TempDir:            tempDir,
		EnvVars:            []string{},
		ClientSocket:       filepath.Join(tempDir, "client.sock"),
		ServerSocket:       filepath.Join(tempDir, "server.sock"),
		OutputFile:         filepath.Join(tempDir, "times.json"),
		CreatedFiles:       []string{},
		CreatedDirectories: []string{},
	}

	return ctx, nil
}

// StopCoordinator kills a coordinator that is still running.
func (testCtx *TestContext) StopCoordinator() error {
	if testCtx.CoordinatorCmd == nil {
		return nil
	}
	testCtx.coordinatorCancel()
	select {
	case <-testCtx.CoordinatorDone:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("coordinator (pid %d) did not exit", testCtx.CoordinatorCmd.Process.Pid)
	}
	testCtx.CoordinatorCmd = nil
	return nil
}

// Cleanup removes all temporary files and directories created during tests.
func (testCtx *TestContext) Cleanup() error {
	var errors []error

	if err := testCtx.StopCoordinator(); err != nil {
		errors = append(errors, fmt.Errorf("failed to stop coordinator: %w", err))
	}

	// Remove created files
	for _, file := range testCtx.CreatedFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errors = append(errors, fmt.Errorf("failed to remove file %s: %w", file, err))
		}
	}

	// Remove created directories
	for _, dir := range testCtx.CreatedDirectories {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			errors = append(errors, fmt.Errorf("failed to remove directory %s: %w", dir, err))
		}
	}

	// Remove temp directory
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errors = append(errors, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("cleanup errors: %v", errors)
	}

	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// TrackFile adds a file to be cleaned up after tests.
func (testCtx *TestContext) TrackFile(filename string) {
	absPath := filename
	if !filepath.IsAbs(filename) {
		absPath = filepath.Join(testCtx.WorkingDir, filename)
	}
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, absPath)
}

// substituteVariables expands {client}, {server}, {out} and {tmp}.
func (testCtx *TestContext) substituteVariables(s string) string {
	return strings.NewReplacer(
		"{client}", testCtx.ClientSocket,
		"{server}", testCtx.ServerSocket,
		"{out}", testCtx.OutputFile,
		"{tmp}", testCtx.TempDir,
	).Replace(s)
}
