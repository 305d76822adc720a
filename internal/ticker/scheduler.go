// Package ticker runs the loadout countdown: a high-frequency local
// timer seeded from the control plane's finalization timer, with a
// single latched trigger shortly before lock-in.
package ticker

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"lobbyswap/internal/gameflow"
	"lobbyswap/internal/obs"
	"lobbyswap/internal/session"
)

// The control plane sometimes reports 0 ms for a beat when finalization
// starts; probe a few times before giving up on seeding.
const (
	probeIterations = 8
	probeSleep      = 60 * time.Millisecond
)

// TimerSource reads the champ-select timer. ok is false when the control
// plane is unavailable or not in champ select.
type TimerSource interface {
	LoadoutTimer(ctx context.Context) (phase gameflow.TimerPhase, leftMS int, ok bool)
}

// Scheduler seeds and runs countdown instances. Only one instance is
// authoritative at a time; the session ticker generation decides which.
type Scheduler struct {
	state       *session.State
	src         TimerSource
	trigger     func(session.Snapshot)
	hz          int
	thresholdMS int
	resyncEvery time.Duration
	log         *zap.Logger
	metrics     *obs.Metrics

	// Injected clocks for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

func NewScheduler(state *session.State, src TimerSource, trigger func(session.Snapshot),
	hz, thresholdMS int, resyncEvery time.Duration, log *zap.Logger, m *obs.Metrics) *Scheduler {
	if hz < 10 {
		hz = 10
	}
	if hz > 2000 {
		hz = 2000
	}
	return &Scheduler{
		state:       state,
		src:         src,
		trigger:     trigger,
		hz:          hz,
		thresholdMS: thresholdMS,
		resyncEvery: resyncEvery,
		log:         log,
		metrics:     m,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// MaybeStart seeds a countdown when finalization has begun and none is
// active. Safe to call on every tracker poll.
func (s *Scheduler) MaybeStart(ctx context.Context) {
	if s.state.CountdownActive() || !s.state.Phase().InChampSelect() {
		return
	}
	phase, left, ok := s.src.LoadoutTimer(ctx)
	if !ok || phase != gameflow.TimerFinalization {
		return
	}
	for i := 0; left <= 0 && i < probeIterations; i++ {
		s.sleep(probeSleep)
		phase, left, ok = s.src.LoadoutTimer(ctx)
		if !ok || phase != gameflow.TimerFinalization {
			return
		}
	}
	if left <= 0 {
		return
	}

	gen := s.state.SeedCountdown(left)
	if s.metrics != nil {
		s.metrics.CountdownsSeeded.Inc()
	}
	s.log.Info("countdown seeded",
		zap.Uint64("gen", gen), zap.Int("left_ms", left), zap.Int("hz", s.hz))
	go s.Run(ctx, gen, left)
}

// Run is one countdown instance. It owns the remaining-time field for as
// long as gen is current; a superseded instance exits without another
// write. The displayed remaining time never increases: resync can only
// pull the deadline earlier, and the clamp absorbs scheduling jitter.
func (s *Scheduler) Run(ctx context.Context, gen uint64, leftMS int) {
	deadline := s.now().Add(time.Duration(leftMS) * time.Millisecond)
	prev := math.MaxInt
	fired := false
	lastResync := s.now()
	step := time.Second / time.Duration(s.hz)

	for ctx.Err() == nil {
		if s.state.Stopped() || !s.state.Phase().InChampSelect() ||
			!s.state.CountdownActive() || s.state.CurrentTickerGen() != gen {
			break
		}

		now := s.now()
		if now.Sub(lastResync) >= s.resyncEvery {
			lastResync = now
			if phase, left, ok := s.src.LoadoutTimer(ctx); ok &&
				phase == gameflow.TimerFinalization && left > 0 {
				cand := s.now().Add(time.Duration(left) * time.Millisecond)
				if cand.Before(deadline) {
					deadline = cand
				}
			}
		}

		remain := int(deadline.Sub(s.now()).Milliseconds())
		if remain < 0 {
			remain = 0
		}
		if remain > prev {
			remain = prev
		}
		prev = remain

		if !s.state.SetRemaining(gen, remain) {
			return
		}

		if !fired && remain <= s.thresholdMS {
			fired = true
			s.fire(gen, remain)
		}
		if remain <= 0 {
			break
		}
		s.sleep(step)
	}
	s.state.EndCountdown(gen)
}

// fire hands the coordinator a self-consistent snapshot, exactly once per
// countdown instance. Without a resolution there is nothing to apply and
// the trigger degrades to a log line.
func (s *Scheduler) fire(gen uint64, remainMS int) {
	snap := s.state.Snapshot()
	if s.metrics != nil {
		s.metrics.TriggersFired.Inc()
	}
	if !snap.HasResolved {
		s.log.Info("trigger fired with no resolution, skipping",
			zap.Uint64("gen", gen), zap.Int("remain_ms", remainMS))
		return
	}
	s.log.Info("trigger fired",
		zap.Uint64("gen", gen),
		zap.Int("remain_ms", remainMS),
		zap.Int("skin_id", snap.Resolution.SkinID),
		zap.String("name", snap.Resolution.Name))
	if s.trigger != nil {
		go s.trigger(snap)
	}
}
