// Package rendezvous times a unit of work against an external peer.
//
// A Timer optionally holds at Begin and End until a peer process answers a
// one-byte ready signal over a Unix datagram socket, then records the start
// and end wall-clock times and writes them as a JSON line.
//
// Typical use:
//
//	t, n, err := rendezvous.Initialize(args)
//	args = args[n:]
//	err = t.Begin()
//	// ... work ...
//	err = t.End()
//
// Begin and End are each expected to be called exactly once, in that order.
package rendezvous

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/interop/internal/common"
	"github.com/MeKo-Tech/interop/internal/metrics"
)

// State is the lifecycle position of a Timer.
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateStarted
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateStarted:
		return "started"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Timer is the rendezvous state machine. It is not safe for concurrent use.
type Timer struct {
	cfg    Config
	state  State
	start  uint64
	end    uint64
	output io.Writer
	file   *os.File

	transport Transport
	dial      Dialer
	clock     common.Clock
	logger    *slog.Logger
	metrics   *metrics.Recorder
}

// Option customizes a Timer.
type Option func(*Timer)

// WithDialer replaces the Unix datagram dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(t *Timer) { t.dial = d }
}

// WithClock replaces the wall clock.
func WithClock(c common.Clock) Option {
	return func(t *Timer) { t.clock = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Timer) { t.logger = l }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(t *Timer) { t.metrics = m }
}

// WithOutput sets the sink for the timing record. It takes precedence over
// Config.OutputFile.
func WithOutput(w io.Writer) Option {
	return func(t *Timer) { t.output = w }
}

// New validates cfg and opens the output file, if any, for writing.
func New(cfg Config, opts ...Option) (*Timer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Timer{
		cfg:    cfg,
		dial:   DialUnixgram,
		clock:  common.SystemClock,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.output == nil && cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return nil, ioError("open", err)
		}
		t.file = f
		t.output = f
	}

	t.state = StateConfigured
	t.logger.Debug("rendezvous timer configured",
		"hold", cfg.Hold(),
		"local", cfg.LocalPath,
		"peer", cfg.PeerPath,
		"output", cfg.OutputFile)
	return t, nil
}

// Initialize parses the leading options in args and builds a Timer from them.
// It returns the number of arguments consumed.
func Initialize(args []string, opts ...Option) (*Timer, int, error) {
	return InitializeWithDefaults(args, Config{}, opts...)
}

// InitializeWithDefaults is Initialize with base supplying values for options
// absent from args.
func InitializeWithDefaults(args []string, base Config, opts ...Option) (*Timer, int, error) {
	cfg, n, err := ParseArgs(args, base)
	if err != nil {
		return nil, 0, err
	}
	t, err := New(cfg, opts...)
	if err != nil {
		return nil, 0, err
	}
	return t, n, nil
}

// Begin performs the ready handshake in hold mode and then records the start
// time.
func (t *Timer) Begin() error {
	if t.cfg.Hold() {
		tr, err := t.dial(t.cfg.LocalPath, t.cfg.PeerPath)
		if err != nil {
			t.metrics.ObserveHandshake(metrics.RoleClient, metrics.PhaseBegin, 0, err)
			return asIPC("connect", err)
		}
		t.transport = tr
		if err := t.handshake(metrics.PhaseBegin); err != nil {
			return err
		}
	}

	t.start = t.now()
	t.state = StateStarted
	t.logger.Debug("rendezvous begin", "start_ns", t.start)
	return nil
}

// End records the end time, performs the ready handshake in hold mode and
// writes the record to the output sink, if one is configured. The end time is
// taken before the handshake.
func (t *Timer) End() error {
	t.end = t.now()

	if t.cfg.Hold() {
		if err := t.handshake(metrics.PhaseEnd); err != nil {
			return err
		}
	}

	rec := t.Record()
	t.metrics.SetInterval(rec.Interval())
	if t.output != nil {
		if err := WriteRecord(t.output, rec); err != nil {
			return ioError("write", err)
		}
		if t.file != nil {
			if err := t.file.Sync(); err != nil {
				return ioError("write", err)
			}
		}
	}

	t.state = StateFinished
	t.logger.Debug("rendezvous end", "start_ns", rec.Start, "end_ns", rec.End, "interval", rec.Interval())
	return nil
}

// OverwriteStartTime re-records the start time, for callers that open several
// rendezvous connections but measure only one of them.
func (t *Timer) OverwriteStartTime() error {
	t.start = t.now()
	return nil
}

// Close releases the transport and output file.
func (t *Timer) Close() error {
	var firstErr error
	if t.transport != nil {
		firstErr = t.transport.Close()
		t.transport = nil
	}
	if t.file != nil {
		if err := t.file.Close(); err != nil && firstErr == nil {
			firstErr = ioError("close", err)
		}
		t.file = nil
	}
	return firstErr
}

// StartNanos returns the recorded start time in nanoseconds since the epoch.
func (t *Timer) StartNanos() uint64 { return t.start }

// EndNanos returns the recorded end time in nanoseconds since the epoch.
func (t *Timer) EndNanos() uint64 { return t.end }

// Record returns the recorded start and end times.
func (t *Timer) Record() Record { return Record{Start: t.start, End: t.end} }

// State returns the lifecycle state.
func (t *Timer) State() State { return t.state }

// Config returns the effective configuration.
func (t *Timer) Config() Config { return t.cfg }

func (t *Timer) now() uint64 {
	return EpochNanos(t.clock())
}

func (t *Timer) handshake(phase string) error {
	sw := common.StartStopwatch(phase, t.clock)
	err := ExchangeReadySignal(t.transport)
	wait := sw.Stop()
	t.metrics.ObserveHandshake(metrics.RoleClient, phase, wait, err)
	if err != nil {
		t.logger.Error("rendezvous handshake failed", "phase", phase, "error", err)
		return err
	}
	t.logger.Debug("rendezvous handshake done", "phase", phase, "wait", wait)
	return nil
}

// asIPC keeps errors already classified by the dialer and wraps the rest.
func asIPC(op string, err error) error {
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	return ipcError(op, err)
}
