// Package coordinator implements the peer side of a rendezvous: it holds a
// client at begin and end while setup and teardown scripts run.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/MeKo-Tech/interop/internal/common"
	"github.com/MeKo-Tech/interop/internal/metrics"
	"github.com/MeKo-Tech/interop/internal/rendezvous"
)

// Config describes one coordinated measurement.
type Config struct {
	// ClientSocket is the path the client binds.
	ClientSocket string
	// ServerSocket is the path the coordinator binds.
	ServerSocket string
	// PreScripts run after the client reaches begin and before it is released.
	PreScripts []string
	// PostScripts run after the client reaches end and before it is released.
	PostScripts []string
}

// Validate checks that both socket paths are present.
func (c Config) Validate() error {
	if c.ClientSocket == "" || c.ServerSocket == "" {
		return errors.New("coordinator: client and server socket paths are required")
	}
	return nil
}

// Coordinator drives one measurement against a rendezvous client.
type Coordinator struct {
	cfg     Config
	listen  rendezvous.Dialer
	runner  Runner
	clock   common.Clock
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithListener replaces the socket factory, mainly for tests.
func WithListener(d rendezvous.Dialer) Option {
	return func(c *Coordinator) { c.listen = d }
}

// WithRunner replaces the script runner.
func WithRunner(r Runner) Option {
	return func(c *Coordinator) { c.runner = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithOutput sets where script output goes. Defaults to os.Stdout/os.Stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Coordinator) { c.runner = &ShellRunner{Stdout: stdout, Stderr: stderr} }
}

// New creates a Coordinator.
func New(cfg Config, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Coordinator{
		cfg:    cfg,
		listen: rendezvous.ListenUnixgram,
		runner: &ShellRunner{Stdout: os.Stdout, Stderr: os.Stderr},
		clock:  common.SystemClock,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run binds the server socket and coordinates begin and end of one client.
// Cancelling ctx closes the socket and unblocks any pending receive.
func (c *Coordinator) Run(ctx context.Context) error {
	tr, err := c.listen(c.cfg.ServerSocket, c.cfg.ClientSocket)
	if err != nil {
		return fmt.Errorf("bind %s: %w", c.cfg.ServerSocket, err)
	}

	var closeOnce sync.Once
	closeTransport := func() { closeOnce.Do(func() { _ = tr.Close() }) }
	defer closeTransport()

	stop := context.AfterFunc(ctx, closeTransport)
	defer stop()

	c.logger.Info("coordinator waiting for client",
		"server", c.cfg.ServerSocket, "client", c.cfg.ClientSocket)

	phases := []struct {
		name    string
		scripts []string
	}{
		{metrics.PhaseBegin, c.cfg.PreScripts},
		{metrics.PhaseEnd, c.cfg.PostScripts},
	}
	for _, p := range phases {
		if err := c.phase(ctx, tr, p.name, p.scripts); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}

	c.logger.Info("coordinator done")
	return nil
}

// phase waits for the client's ready signal, runs scripts and releases the
// client.
func (c *Coordinator) phase(ctx context.Context, tr rendezvous.Transport, name string, scripts []string) error {
	sw := common.StartStopwatch(name, c.clock)
	if _, err := tr.Receive(); err != nil {
		c.metrics.ObserveHandshake(metrics.RoleCoordinator, name, sw.Stop(), err)
		return fmt.Errorf("%s: receive: %w", name, err)
	}
	c.logger.Debug("client ready", "phase", name, "wait", sw.Stop())

	scriptPhase := scriptPhaseFor(name)
	c.logger.Info("executing scripts", "phase", scriptPhase, "count", len(scripts))
	for _, script := range scripts {
		err := c.runner.Run(ctx, script)
		c.metrics.ObserveScript(scriptPhase, err)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("script failed", "phase", scriptPhase, "script", script, "error", err)
			continue
		}
		c.logger.Debug("script finished", "phase", scriptPhase, "script", script)
	}

	err := tr.Send(rendezvous.ReadySignal)
	c.metrics.ObserveHandshake(metrics.RoleCoordinator, name, sw.Duration(), err)
	if err != nil {
		return fmt.Errorf("%s: send: %w", name, err)
	}
	return nil
}

func scriptPhaseFor(handshake string) string {
	if handshake == metrics.PhaseBegin {
		return "pre"
	}
	return "post"
}
