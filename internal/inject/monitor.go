package inject

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"lobbyswap/internal/obs"
)

// ProcessStatus is the coarse state of the game executable.
type ProcessStatus int

const (
	StatusRunning ProcessStatus = iota
	StatusSuspended
	StatusStopped
)

// GameProcess controls one running game executable. Implementations are
// platform-specific and injected.
type GameProcess interface {
	PID() int
	Suspend() error
	Resume() error
	Status() (ProcessStatus, error)
}

// ProcessFinder locates the game executable by image name.
type ProcessFinder interface {
	Find(ctx context.Context, name string) (GameProcess, bool, error)
}

const (
	monitorCheckEvery  = 50 * time.Millisecond
	resumeMaxAttempts  = 3
	resumeRetryBackoff = 50 * time.Millisecond
)

// Monitor freezes the game process while the content swap rewrites files
// the game would otherwise load mid-write. Lifecycle: watch for the
// process, suspend it, then resume on request or when the safety timeout
// expires. A process that refuses suspension stops the monitor; leaving
// the game frozen is the one unacceptable failure mode, so the safety
// resume always runs even if the swap never finished.
type Monitor struct {
	finder   ProcessFinder
	procName string
	safety   time.Duration
	log      *zap.Logger
	metrics  *obs.Metrics

	resumeReq atomic.Bool
	done      chan struct{}

	now   func() time.Time
	sleep func(time.Duration)
}

func NewMonitor(finder ProcessFinder, procName string, safety time.Duration,
	log *zap.Logger, m *obs.Metrics) *Monitor {
	return &Monitor{
		finder:   finder,
		procName: procName,
		safety:   safety,
		log:      log,
		metrics:  m,
		done:     make(chan struct{}),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// RequestResume asks the monitor to resume the process and wind down.
// Safe from any goroutine, effective at the next check.
func (m *Monitor) RequestResume() { m.resumeReq.Store(true) }

// Done closes when the monitor has finished, resumed or not.
func (m *Monitor) Done() <-chan struct{} { return m.done }

func (m *Monitor) Run(ctx context.Context) {
	defer close(m.done)

	proc := m.watch(ctx)
	if proc == nil {
		return
	}

	if err := proc.Suspend(); err != nil {
		// Access denied or the process died under us. Do not retry:
		// a half-privileged suspend loop is worse than no suspension.
		m.log.Error("suspension refused, monitor stopping",
			zap.Int("pid", proc.PID()), zap.Error(err))
		return
	}
	suspendedAt := m.now()
	m.log.Info("game process suspended",
		zap.Int("pid", proc.PID()), zap.Duration("safety_timeout", m.safety))

	for {
		if m.resumeReq.Load() || ctx.Err() != nil {
			break
		}
		if m.now().Sub(suspendedAt) >= m.safety {
			m.log.Warn("safety timeout reached, forcing resume",
				zap.Int("pid", proc.PID()), zap.Duration("timeout", m.safety))
			if m.metrics != nil {
				m.metrics.ForcedResumes.Inc()
			}
			break
		}
		m.sleep(monitorCheckEvery)
	}

	m.resume(proc)
	if m.metrics != nil {
		m.metrics.SuspendedFor.Observe(m.now().Sub(suspendedAt).Seconds())
	}
}

// watch polls until the game process appears or the monitor is asked to
// stand down.
func (m *Monitor) watch(ctx context.Context) GameProcess {
	for {
		if m.resumeReq.Load() || ctx.Err() != nil {
			return nil
		}
		proc, found, err := m.finder.Find(ctx, m.procName)
		if err != nil {
			m.log.Error("process lookup failed, monitor stopping", zap.Error(err))
			return nil
		}
		if found {
			return proc
		}
		m.sleep(monitorCheckEvery)
	}
}

// resume retries a bounded number of times, verifying through process
// status rather than trusting the resume call.
func (m *Monitor) resume(proc GameProcess) {
	for attempt := 1; attempt <= resumeMaxAttempts; attempt++ {
		if err := proc.Resume(); err != nil {
			m.log.Warn("resume call failed",
				zap.Int("attempt", attempt), zap.Error(err))
		}
		status, err := proc.Status()
		if err == nil && status != StatusSuspended {
			m.log.Info("game process resumed",
				zap.Int("pid", proc.PID()), zap.Int("attempts", attempt))
			return
		}
		m.sleep(resumeRetryBackoff)
	}
	m.log.Error("game process still suspended after retries",
		zap.Int("pid", proc.PID()), zap.Int("attempts", resumeMaxAttempts))
}
