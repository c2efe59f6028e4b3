// Package metrics exposes rendezvous handshake and interval metrics on a
// private Prometheus registry that can be dumped to a textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Roles and phases used as label values.
const (
	RoleClient      = "client"
	RoleCoordinator = "coordinator"

	PhaseBegin = "begin"
	PhaseEnd   = "end"

	ResultOK    = "ok"
	ResultError = "error"
)

// Recorder collects metrics for one process. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	handshakesTotal  *prometheus.CounterVec
	handshakeWait    *prometheus.HistogramVec
	measuredInterval prometheus.Gauge
	scriptsTotal     *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		handshakesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interop_handshakes_total",
				Help: "Total number of rendezvous handshakes",
			},
			[]string{"role", "phase", "result"},
		),
		handshakeWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "interop_handshake_wait_seconds",
				Help:    "Time spent blocked in a rendezvous handshake",
				Buckets: []float64{.001, .01, .1, .5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"role", "phase"},
		),
		measuredInterval: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "interop_measured_interval_seconds",
				Help: "Interval between the recorded start and end timestamps",
			},
		),
		scriptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interop_scripts_total",
				Help: "Total number of coordinator scripts executed",
			},
			[]string{"phase", "result"}, // phase: pre, post
		),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveHandshake records one handshake attempt and how long it blocked.
func (r *Recorder) ObserveHandshake(role, phase string, wait time.Duration, err error) {
	if r == nil {
		return
	}
	r.handshakesTotal.WithLabelValues(role, phase, result(err)).Inc()
	r.handshakeWait.WithLabelValues(role, phase).Observe(wait.Seconds())
}

// SetInterval records the measured start/end interval.
func (r *Recorder) SetInterval(d time.Duration) {
	if r == nil {
		return
	}
	r.measuredInterval.Set(d.Seconds())
}

// ObserveScript records one coordinator script execution.
func (r *Recorder) ObserveScript(phase string, err error) {
	if r == nil {
		return
	}
	r.scriptsTotal.WithLabelValues(phase, result(err)).Inc()
}

// WriteTextfile writes all metrics in the text exposition format, suitable for
// the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}

// MeasuredInterval exposes the interval gauge.
func (r *Recorder) MeasuredInterval() prometheus.Gauge {
	if r == nil {
		return nil
	}
	return r.measuredInterval
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
