package inject

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"lobbyswap/internal/gameflow"
	"lobbyswap/internal/lcu"
	"lobbyswap/internal/session"
)

func TestSwapLabel(t *testing.T) {
	cases := []struct {
		name  string
		skin  string
		champ string
		want  string
	}{
		{"plain", "Dreadknight", "Garen", "Dreadknight Garen"},
		{"champion prefix dropped", "Vladimir Blood Lord", "Vladimir", "Blood Lord Vladimir"},
		{"champion suffix kept once", "Dreadknight Garen", "Garen", "Dreadknight Garen"},
		{"champion inside name", "K/DA ALL OUT Seraphine Indie", "Seraphine", "K/DA ALL OUT Seraphine Indie"},
		{"no champion", "Dreadknight", "", "Dreadknight"},
		{"case-insensitive prefix", "garen Dreadknight", "Garen", "Dreadknight Garen"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SwapLabel(tc.skin, tc.champ); got != tc.want {
				t.Fatalf("SwapLabel(%q, %q) = %q, want %q", tc.skin, tc.champ, got, tc.want)
			}
		})
	}
}

// --- monitor ---

type fakeProc struct {
	suspends    atomic.Int64
	resumes     atomic.Int64
	suspendErr  error
	stickyCount int64 // Status stays Suspended for this many resume calls
}

func (p *fakeProc) PID() int { return 4242 }
func (p *fakeProc) Suspend() error {
	p.suspends.Add(1)
	return p.suspendErr
}
func (p *fakeProc) Resume() error {
	p.resumes.Add(1)
	return nil
}
func (p *fakeProc) Status() (ProcessStatus, error) {
	if p.suspends.Load() > 0 && p.resumes.Load() <= p.stickyCount {
		return StatusSuspended, nil
	}
	return StatusRunning, nil
}

type fakeFinder struct {
	proc  *fakeProc
	found bool
	err   error
}

func (f *fakeFinder) Find(context.Context, string) (GameProcess, bool, error) {
	if f.proc == nil {
		return nil, f.found, f.err
	}
	return f.proc, f.found, f.err
}

type monClock struct{ t time.Time }

func (c *monClock) now() time.Time        { return c.t }
func (c *monClock) sleep(d time.Duration) { c.t = c.t.Add(d) }

func newTestMonitor(f ProcessFinder, safety time.Duration) (*Monitor, *monClock) {
	m := NewMonitor(f, "game.exe", safety, zap.NewNop(), nil)
	clock := &monClock{t: time.Unix(0, 0)}
	m.now = clock.now
	m.sleep = clock.sleep
	return m, clock
}

func TestMonitorResumesOnRequest(t *testing.T) {
	proc := &fakeProc{}
	// Real clock: the request arrives while the monitor holds the
	// process suspended.
	m := NewMonitor(&fakeFinder{proc: proc, found: true}, "game.exe", 20*time.Second, zap.NewNop(), nil)

	go func() {
		waitUntil(func() bool { return proc.suspends.Load() > 0 })
		m.RequestResume()
	}()
	m.Run(context.Background())

	if proc.suspends.Load() != 1 {
		t.Fatalf("suspended %d times", proc.suspends.Load())
	}
	if proc.resumes.Load() == 0 {
		t.Fatalf("never resumed")
	}
}

func TestMonitorSafetyTimeoutForcesResume(t *testing.T) {
	proc := &fakeProc{}
	m, clock := newTestMonitor(&fakeFinder{proc: proc, found: true}, 20*time.Second)

	start := clock.t
	m.Run(context.Background()) // no resume request: must self-release

	if proc.resumes.Load() == 0 {
		t.Fatalf("safety timeout did not resume the process")
	}
	frozen := clock.t.Sub(start)
	if frozen < 20*time.Second || frozen > 21*time.Second {
		t.Fatalf("process frozen for %v, want ~20s", frozen)
	}
}

func TestMonitorRetriesResumeUntilVerified(t *testing.T) {
	proc := &fakeProc{stickyCount: 2} // first two resume calls do not take
	m, _ := newTestMonitor(&fakeFinder{proc: proc, found: true}, 20*time.Second)
	m.Run(context.Background()) // safety timeout drives the resume path

	if got := proc.resumes.Load(); got != 3 {
		t.Fatalf("resume attempted %d times, want 3", got)
	}
}

func TestMonitorStopsWhenSuspensionRefused(t *testing.T) {
	proc := &fakeProc{suspendErr: errors.New("access denied")}
	m, _ := newTestMonitor(&fakeFinder{proc: proc, found: true}, 20*time.Second)
	m.Run(context.Background())

	if proc.resumes.Load() != 0 {
		t.Fatalf("resume called on a process that was never suspended")
	}
	select {
	case <-m.Done():
	default:
		t.Fatalf("monitor did not finish after refusal")
	}
}

// --- coordinator ---

type fakeCP struct {
	sess        *lcu.ChampSelectSession
	selected    atomic.Int64
	selectCalls atomic.Int64
	pickCalls   atomic.Int64
}

func (f *fakeCP) ChampSelectSession(context.Context) (*lcu.ChampSelectSession, error) {
	return f.sess, nil
}
func (f *fakeCP) CompletePick(_ context.Context, _, _ int) error {
	f.pickCalls.Add(1)
	return nil
}
func (f *fakeCP) SelectSkin(_ context.Context, skinID int) error {
	f.selectCalls.Add(1)
	f.selected.Store(int64(skinID))
	return nil
}
func (f *fakeCP) SelectedSkin(context.Context) (int, error) {
	return int(f.selected.Load()), nil
}

type fakeApplier struct {
	calls atomic.Int64
	err   error
	wait  func() // optional barrier, e.g. until the monitor suspended
}

func (f *fakeApplier) Apply(context.Context, string, int, int) error {
	f.calls.Add(1)
	if f.wait != nil {
		f.wait()
	}
	return f.err
}

func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

type fakeNamer struct{}

func (fakeNamer) ChampionName(context.Context, int) (string, error) { return "Garen", nil }

func testSession(selectedSkin int) *lcu.ChampSelectSession {
	return &lcu.ChampSelectSession{
		LocalPlayerCellID: 2,
		Actions: [][]lcu.ChampSelectAction{{
			{ID: 7, ActorCellID: 2, Type: "pick", ChampionID: 86, Completed: true},
		}},
		MyTeam: []lcu.TeamMember{{CellID: 2, ChampionID: 86, SelectedSkinID: selectedSkin}},
	}
}

func testSnapshot(skinID int, owned ...int) session.Snapshot {
	ownedSet := map[int]bool{}
	for _, id := range owned {
		ownedSet[id] = true
	}
	return session.Snapshot{
		Phase:         gameflow.PhaseChampSelect,
		LockedChampID: 86,
		Resolution:    session.Resolution{SkinID: skinID, Name: "Dreadknight Garen"},
		HasResolved:   true,
		OwnedSkinIDs:  ownedSet,
	}
}

func newTestCoordinator(cp ControlPlane, applier Applier, finder ProcessFinder) (*Coordinator, *session.State) {
	st := session.New()
	st.SetPhase(gameflow.PhaseChampSelect)
	cfg := Config{
		LockWait:    100 * time.Millisecond,
		Cooldown:    2 * time.Second,
		Safety:      20 * time.Second,
		ProcessName: "game.exe",
	}
	c := NewCoordinator(st, cp, applier, finder, fakeNamer{}, nil, nil, cfg, zap.NewNop(), nil)
	return c, st
}

func TestOwnedSkinShortCircuitsToForcedSelection(t *testing.T) {
	cp := &fakeCP{sess: testSession(86000)}
	applier := &fakeApplier{}
	c, st := newTestCoordinator(cp, applier, &fakeFinder{})

	c.Inject(context.Background(), testSnapshot(86004, 86004))

	if applier.calls.Load() != 0 {
		t.Fatalf("swap invoked for an owned skin")
	}
	if cp.selected.Load() != 86004 {
		t.Fatalf("selection = %d, want 86004", cp.selected.Load())
	}
	if !st.Snapshot().InjectionDone {
		t.Fatalf("injection not marked done")
	}
}

func TestBaseSkinShortCircuits(t *testing.T) {
	cp := &fakeCP{sess: testSession(86004)}
	applier := &fakeApplier{}
	c, _ := newTestCoordinator(cp, applier, &fakeFinder{})

	c.Inject(context.Background(), testSnapshot(86000))

	if applier.calls.Load() != 0 {
		t.Fatalf("swap invoked for the base variant")
	}
	if cp.selected.Load() != 86000 {
		t.Fatalf("selection = %d, want base", cp.selected.Load())
	}
}

func TestUnownedSkinForcesBaseAndApplies(t *testing.T) {
	cp := &fakeCP{sess: testSession(86004)} // lobby still has the unowned skin selected
	proc := &fakeProc{}
	// The swap blocks until the monitor suspended, as the real tool does.
	applier := &fakeApplier{wait: func() {
		waitUntil(func() bool { return proc.suspends.Load() > 0 })
	}}
	c, st := newTestCoordinator(cp, applier, &fakeFinder{proc: proc, found: true})

	c.Inject(context.Background(), testSnapshot(86004))

	if applier.calls.Load() != 1 {
		t.Fatalf("swap invoked %d times, want 1", applier.calls.Load())
	}
	if cp.selected.Load() != 86000 {
		t.Fatalf("base variant not forced, selection = %d", cp.selected.Load())
	}
	if proc.suspends.Load() != 1 || proc.resumes.Load() == 0 {
		t.Fatalf("suspension lifecycle wrong: %d suspends, %d resumes",
			proc.suspends.Load(), proc.resumes.Load())
	}
	if !st.Snapshot().InjectionDone {
		t.Fatalf("injection not marked done")
	}
}

func TestUnownedSkinSkipsBaseForceWhenAlreadyBase(t *testing.T) {
	cp := &fakeCP{sess: testSession(86000)} // base already selected
	applier := &fakeApplier{}
	c, _ := newTestCoordinator(cp, applier, &fakeFinder{proc: &fakeProc{}, found: true})

	c.Inject(context.Background(), testSnapshot(86004))

	if cp.selectCalls.Load() != 0 {
		t.Fatalf("selection written %d times despite base already set", cp.selectCalls.Load())
	}
	if applier.calls.Load() != 1 {
		t.Fatalf("swap not invoked")
	}
}

func TestApplyFailureDoesNotMarkDone(t *testing.T) {
	cp := &fakeCP{sess: testSession(86000)}
	proc := &fakeProc{}
	applier := &fakeApplier{
		err: errors.New("swap tooling crashed"),
		wait: func() {
			waitUntil(func() bool { return proc.suspends.Load() > 0 })
		},
	}
	c, st := newTestCoordinator(cp, applier, &fakeFinder{proc: proc, found: true})

	c.Inject(context.Background(), testSnapshot(86004))

	if st.Snapshot().InjectionDone {
		t.Fatalf("failed attempt marked done")
	}
	if proc.resumes.Load() == 0 {
		t.Fatalf("process left suspended after failed swap")
	}
}

func TestCooldownDropsSecondTrigger(t *testing.T) {
	cp := &fakeCP{sess: testSession(86000)}
	applier := &fakeApplier{}
	c, _ := newTestCoordinator(cp, applier, &fakeFinder{proc: &fakeProc{}, found: true})

	c.Inject(context.Background(), testSnapshot(86004))
	c.Inject(context.Background(), testSnapshot(86004))

	if applier.calls.Load() != 1 {
		t.Fatalf("swap invoked %d times, want cooldown to drop the second", applier.calls.Load())
	}
}

// --- history ---

func TestHistoryRoundTrip(t *testing.T) {
	h, err := OpenHistory(t.TempDir() + "/history.db")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer h.Close()

	ctx := context.Background()
	if _, found, err := h.LastForChampion(ctx, 86); err != nil || found {
		t.Fatalf("empty lookup: found=%v err=%v", found, err)
	}

	attempts := []Attempt{
		{ID: "a1", ChampionID: 86, SkinID: 86004, Outcome: "applied", At: time.Now().Add(-time.Hour)},
		{ID: "a2", ChampionID: 86, SkinID: 86022, Outcome: "apply_failed", At: time.Now().Add(-time.Minute)},
		{ID: "a3", ChampionID: 86, SkinID: 86011, Outcome: "applied", At: time.Now()},
	}
	for _, a := range attempts {
		if err := h.Record(ctx, a); err != nil {
			t.Fatalf("record %s: %v", a.ID, err)
		}
	}

	last, found, err := h.LastForChampion(ctx, 86)
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if last.SkinID != 86011 {
		t.Fatalf("last skin = %d, want most recent successful", last.SkinID)
	}
}
