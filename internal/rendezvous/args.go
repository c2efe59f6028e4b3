package rendezvous

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

const (
	// SocketFlag is the long name of the rendezvous address pair option.
	SocketFlag = "socket"
	// FileFlag is the long name of the output file option.
	FileFlag = "file"

	socketSeparator = ","

	// Usable bytes in sockaddr_un.sun_path on Linux, NUL excluded.
	maxSocketPath = 107
)

// Config describes one timer. LocalPath and PeerPath are either both set
// (hold mode) or both empty.
type Config struct {
	LocalPath  string `mapstructure:"local_path" yaml:"local_path" json:"local_path"`
	PeerPath   string `mapstructure:"peer_path" yaml:"peer_path" json:"peer_path"`
	OutputFile string `mapstructure:"output_file" yaml:"output_file" json:"output_file"`
}

// Hold reports whether Begin and End perform the rendezvous handshake.
func (c Config) Hold() bool {
	return c.LocalPath != "" || c.PeerPath != ""
}

// Validate checks the hold-mode invariant and socket path lengths.
func (c Config) Validate() error {
	if !c.Hold() {
		return nil
	}
	if c.LocalPath == "" || c.PeerPath == "" {
		return configError("validate", errors.New("no client and/or server socket path was given"))
	}
	for _, p := range []string{c.LocalPath, c.PeerPath} {
		if len(p) > maxSocketPath {
			return configError("validate", fmt.Errorf("socket path %q exceeds %d bytes", p, maxSocketPath))
		}
	}
	return nil
}

// ParseSocketPair splits "<local>,<peer>" into its two addresses.
// Exactly two non-empty tokens are accepted; a trailing third token is rejected.
func ParseSocketPair(s string) (string, string, error) {
	parts := strings.Split(s, socketSeparator)
	if len(parts) != 2 {
		return "", "", configError("parse", fmt.Errorf("socket pair %q: want <client>,<server>", s))
	}
	local, peer := parts[0], parts[1]
	if local == "" || peer == "" {
		return "", "", configError("parse", fmt.Errorf("socket pair %q: empty address", s))
	}
	return local, peer, nil
}

// NewFlagSet returns the option set understood by ParseArgs. Callers may use it
// to render usage text.
func NewFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("interop", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)
	fs.StringP(SocketFlag, "s", "",
		"<client>,<server> socket paths; begin and end hold until the peer answers")
	fs.StringP(FileFlag, "f", "", "file to write the start and end time to")
	return fs
}

// ParseArgs applies the recognized leading options in args on top of base.
// Parsing stops at the first non-option argument or at "--". The returned
// count is the number of leading arguments consumed, so the caller can strip
// them before its own argument handling.
func ParseArgs(args []string, base Config) (Config, int, error) {
	cfg := base
	fs := NewFlagSet()
	if err := fs.Parse(args); err != nil {
		return base, 0, configError("parse", err)
	}

	if fs.Changed(SocketFlag) {
		pair, _ := fs.GetString(SocketFlag)
		local, peer, err := ParseSocketPair(pair)
		if err != nil {
			return base, 0, err
		}
		cfg.LocalPath, cfg.PeerPath = local, peer
	}
	if fs.Changed(FileFlag) {
		cfg.OutputFile, _ = fs.GetString(FileFlag)
		if cfg.OutputFile == "" {
			return base, 0, ioError("open", errors.New("empty output file path"))
		}
	}

	if err := cfg.Validate(); err != nil {
		return base, 0, err
	}
	return cfg, len(args) - len(fs.Args()), nil
}
