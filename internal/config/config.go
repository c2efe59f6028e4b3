package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/interop/internal/coordinator"
	"github.com/MeKo-Tech/interop/internal/rendezvous"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Coordinator: CoordinatorConfig{
			PreScripts:  []string{},
			PostScripts: []string{},
			Shell:       "/bin/sh",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if (c.Rendezvous.ClientSocket == "") != (c.Rendezvous.ServerSocket == "") {
		return fmt.Errorf("rendezvous.client_socket and rendezvous.server_socket must be set together")
	}

	if c.Client.WorkDuration < 0 {
		return fmt.Errorf("invalid client work duration: %s (must not be negative)", c.Client.WorkDuration)
	}

	return nil
}

// ToTimerConfig converts to the client-side rendezvous.Config. The client binds
// the client socket and talks to the server socket.
func (c *Config) ToTimerConfig() rendezvous.Config {
	return rendezvous.Config{
		LocalPath:  c.Rendezvous.ClientSocket,
		PeerPath:   c.Rendezvous.ServerSocket,
		OutputFile: c.Output.File,
	}
}

// ToCoordinatorConfig converts to coordinator.Config.
func (c *Config) ToCoordinatorConfig() coordinator.Config {
	return coordinator.Config{
		ClientSocket: c.Rendezvous.ClientSocket,
		ServerSocket: c.Rendezvous.ServerSocket,
		PreScripts:   slices.Clone(c.Coordinator.PreScripts),
		PostScripts:  slices.Clone(c.Coordinator.PostScripts),
	}
}
