package ticker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"lobbyswap/internal/gameflow"
	"lobbyswap/internal/session"
)

type fakeTimer struct {
	phase gameflow.TimerPhase
	left  func() int
	ok    bool
}

func (f *fakeTimer) LoadoutTimer(context.Context) (gameflow.TimerPhase, int, bool) {
	return f.phase, f.left(), f.ok
}

// fakeClock drives the scheduler deterministically: every sleep advances
// virtual time and can observe the published state.
type fakeClock struct {
	t       time.Time
	onSleep func()
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.t = c.t.Add(d)
	if c.onSleep != nil {
		c.onSleep()
	}
}

func newTestScheduler(st *session.State, src TimerSource, trigger func(session.Snapshot),
	thresholdMS int, clock *fakeClock) *Scheduler {
	s := NewScheduler(st, src, trigger, 1000, thresholdMS, 200*time.Millisecond, zap.NewNop(), nil)
	s.now = clock.now
	s.sleep = clock.sleep
	return s
}

func TestCountdownFiresExactlyOnceAtThreshold(t *testing.T) {
	st := session.New()
	st.SetPhase(gameflow.PhaseChampSelect)
	st.SetResolution(session.Resolution{SkinID: 86004, Name: "Dreadknight Garen"})

	var fired atomic.Int64
	var remainAtFire atomic.Int64
	done := make(chan struct{}, 4)
	trigger := func(snap session.Snapshot) {
		fired.Add(1)
		remainAtFire.Store(int64(snap.RemainingMS))
		done <- struct{}{}
	}

	clock := &fakeClock{t: time.Unix(0, 0)}
	src := &fakeTimer{ok: false, left: func() int { return 0 }}
	s := newTestScheduler(st, src, trigger, 500, clock)

	gen := st.SeedCountdown(10000)
	s.Run(context.Background(), gen, 10000)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("trigger never fired")
	}
	if n := fired.Load(); n != 1 {
		t.Fatalf("trigger fired %d times, want 1", n)
	}
	if r := remainAtFire.Load(); r > 500 {
		t.Fatalf("fired at %dms remaining, want <= 500", r)
	}
	if st.CountdownActive() {
		t.Fatalf("countdown still active after zero crossing")
	}
}

func TestTriggerSkippedWithoutResolution(t *testing.T) {
	st := session.New()
	st.SetPhase(gameflow.PhaseChampSelect)

	var fired atomic.Int64
	clock := &fakeClock{t: time.Unix(0, 0)}
	src := &fakeTimer{ok: false, left: func() int { return 0 }}
	s := newTestScheduler(st, src, func(session.Snapshot) { fired.Add(1) }, 500, clock)

	gen := st.SeedCountdown(2000)
	s.Run(context.Background(), gen, 2000)

	if fired.Load() != 0 {
		t.Fatalf("trigger fired without a resolution")
	}
}

func TestRemainingNeverIncreases(t *testing.T) {
	st := session.New()
	st.SetPhase(gameflow.PhaseChampSelect)

	// The control plane keeps reporting a larger remaining time than the
	// local deadline; resync must not push the countdown back up.
	src := &fakeTimer{phase: gameflow.TimerFinalization, ok: true, left: func() int { return 9000 }}

	clock := &fakeClock{t: time.Unix(0, 0)}
	var samples []int
	clock.onSleep = func() {
		samples = append(samples, st.Snapshot().RemainingMS)
	}
	s := newTestScheduler(st, src, nil, 0, clock)

	gen := st.SeedCountdown(3000)
	s.Run(context.Background(), gen, 3000)

	for i := 1; i < len(samples); i++ {
		if samples[i] > samples[i-1] {
			t.Fatalf("remaining increased: %d -> %d at sample %d", samples[i-1], samples[i], i)
		}
	}
	if len(samples) == 0 {
		t.Fatalf("no samples collected")
	}
}

func TestSupersededInstanceExitsWithoutWrites(t *testing.T) {
	st := session.New()
	st.SetPhase(gameflow.PhaseChampSelect)

	clock := &fakeClock{t: time.Unix(0, 0)}
	src := &fakeTimer{ok: false, left: func() int { return 0 }}
	s := newTestScheduler(st, src, nil, 500, clock)

	old := st.SeedCountdown(10000)
	st.SeedCountdown(8000) // supersede before the old instance runs

	s.Run(context.Background(), old, 10000)

	snap := st.Snapshot()
	if snap.RemainingMS != 8000 {
		t.Fatalf("stale instance wrote remaining=%d", snap.RemainingMS)
	}
	if !st.CountdownActive() {
		t.Fatalf("stale instance deactivated the live countdown")
	}
}

func TestMaybeStartOnlyDuringFinalization(t *testing.T) {
	st := session.New()
	st.SetPhase(gameflow.PhaseChampSelect)

	clock := &fakeClock{t: time.Unix(0, 0)}
	src := &fakeTimer{phase: gameflow.TimerBanPick, ok: true, left: func() int { return 30000 }}
	s := newTestScheduler(st, src, nil, 500, clock)

	s.MaybeStart(context.Background())
	if st.CountdownActive() {
		t.Fatalf("countdown seeded outside finalization")
	}

	src.phase = gameflow.TimerFinalization
	s.MaybeStart(context.Background())
	if !st.CountdownActive() {
		t.Fatalf("countdown not seeded during finalization")
	}
}

func TestMaybeStartProbesZeroTimer(t *testing.T) {
	st := session.New()
	st.SetPhase(gameflow.PhaseChampSelect)

	clock := &fakeClock{t: time.Unix(0, 0)}
	calls := 0
	src := &fakeTimer{phase: gameflow.TimerFinalization, ok: true}
	src.left = func() int {
		calls++
		if calls < 3 {
			return 0 // timer value not populated yet
		}
		return 10000
	}
	s := newTestScheduler(st, src, nil, 500, clock)

	s.MaybeStart(context.Background())
	if !st.CountdownActive() {
		t.Fatalf("probe did not recover a late timer value")
	}
}
