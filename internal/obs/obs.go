// Package obs holds the process-wide observability plumbing: the zap
// logger and the prometheus registry every component reports into.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Debug switches to the development
// encoder with DebugLevel enabled; production output is JSON at Info.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	return zap.NewProduction()
}

// Metrics are the counters and gauges exposed on /metrics. Component
// goroutines update them directly; none of them are load-bearing for
// correctness.
type Metrics struct {
	PhaseTransitions  *prometheus.CounterVec
	DetectionCycles   *prometheus.CounterVec
	DetectionSkips    prometheus.Counter
	Resolutions       *prometheus.CounterVec
	ResolutionScore   prometheus.Histogram
	CountdownsSeeded  prometheus.Counter
	TriggersFired     prometheus.Counter
	Injections        *prometheus.CounterVec
	InjectionDuration prometheus.Histogram
	SuspendedFor      prometheus.Histogram
	ForcedResumes     prometheus.Counter
	LCURequests       *prometheus.CounterVec
}

// NewMetrics registers every collector on reg and returns the set. A nil
// reg registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto{reg}
	return &Metrics{
		PhaseTransitions: f.counterVec("lobbyswap_phase_transitions_total",
			"Gameflow phase transitions observed.", "to"),
		DetectionCycles: f.counterVec("lobbyswap_detection_cycles_total",
			"Detection cycles executed, by backend.", "backend"),
		DetectionSkips: f.counter("lobbyswap_detection_skips_total",
			"Detection cycles skipped by the frame-diff gate."),
		Resolutions: f.counterVec("lobbyswap_resolutions_total",
			"Name resolutions, by outcome.", "outcome"),
		ResolutionScore: f.histogram("lobbyswap_resolution_score",
			"Similarity score of accepted resolutions.",
			prometheus.LinearBuckets(0.5, 0.05, 11)),
		CountdownsSeeded: f.counter("lobbyswap_countdowns_seeded_total",
			"Countdown instances started."),
		TriggersFired: f.counter("lobbyswap_triggers_fired_total",
			"Injection triggers fired at the countdown threshold."),
		Injections: f.counterVec("lobbyswap_injections_total",
			"Injection attempts, by outcome.", "outcome"),
		InjectionDuration: f.histogram("lobbyswap_injection_duration_seconds",
			"Wall time of a full injection attempt.",
			prometheus.ExponentialBuckets(0.05, 2, 10)),
		SuspendedFor: f.histogram("lobbyswap_suspension_seconds",
			"Time the game process stayed suspended.",
			prometheus.ExponentialBuckets(0.1, 2, 9)),
		ForcedResumes: f.counter("lobbyswap_forced_resumes_total",
			"Safety-timeout resumes of a suspended game process."),
		LCURequests: f.counterVec("lobbyswap_lcu_requests_total",
			"Control-plane requests, by endpoint and result.", "endpoint", "result"),
	}
}

type promauto struct{ reg prometheus.Registerer }

func (f promauto) counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	f.reg.MustRegister(c)
	return c
}

func (f promauto) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	f.reg.MustRegister(c)
	return c
}

func (f promauto) histogram(name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
	f.reg.MustRegister(h)
	return h
}
