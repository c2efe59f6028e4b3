//nolint:lll
package config

import "time"

// Config represents the complete configuration for the interop tool.
// It covers the client and coordinator commands and supports loading from
// configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Socket pair shared by client and coordinator
	Rendezvous RendezvousConfig `mapstructure:"rendezvous" yaml:"rendezvous" json:"rendezvous"`

	// Timing record output
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Client command settings
	Client ClientConfig `mapstructure:"client" yaml:"client" json:"client"`

	// Coordinator command settings
	Coordinator CoordinatorConfig `mapstructure:"coordinator" yaml:"coordinator" json:"coordinator"`

	// Metrics export
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// RendezvousConfig contains the Unix socket paths. Either both are set or neither.
type RendezvousConfig struct {
	ClientSocket string `mapstructure:"client_socket" yaml:"client_socket" json:"client_socket"`
	ServerSocket string `mapstructure:"server_socket" yaml:"server_socket" json:"server_socket"`
}

// OutputConfig contains timing record settings.
type OutputConfig struct {
	File string `mapstructure:"file" yaml:"file" json:"file"`
}

// ClientConfig contains client driver settings.
type ClientConfig struct {
	// WorkDuration simulates work between begin and end.
	WorkDuration time.Duration `mapstructure:"work_duration" yaml:"work_duration" json:"work_duration"`
}

// CoordinatorConfig contains the scripts run around each handshake.
type CoordinatorConfig struct {
	PreScripts  []string `mapstructure:"pre_scripts" yaml:"pre_scripts" json:"pre_scripts"`
	PostScripts []string `mapstructure:"post_scripts" yaml:"post_scripts" json:"post_scripts"`
	Shell       string   `mapstructure:"shell" yaml:"shell" json:"shell"`
}

// MetricsConfig contains Prometheus textfile export settings.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile"`
}
