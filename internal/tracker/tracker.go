// Package tracker polls the control plane for gameflow phase and
// champ-select progress and keeps the shared session state current. It is
// the designated writer for phase, hover and lock fields.
package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lobbyswap/internal/gameflow"
	"lobbyswap/internal/lcu"
	"lobbyswap/internal/obs"
	"lobbyswap/internal/session"
)

// ControlPlane is the slice of the client API the tracker reads.
// *lcu.Client satisfies it.
type ControlPlane interface {
	GameflowPhase(ctx context.Context) (string, error)
	ChampSelectSession(ctx context.Context) (*lcu.ChampSelectSession, error)
	HoveredChampion(ctx context.Context) (int, error)
	OwnedSkins(ctx context.Context) ([]int, error)
	Locale(ctx context.Context) (string, error)
}

// Starter is the countdown scheduler hook, called once per poll while in
// champ select.
type Starter interface {
	MaybeStart(ctx context.Context)
}

type Tracker struct {
	cp         ControlPlane
	state      *session.State
	starter    Starter
	phaseEvery time.Duration // cadence outside champ select
	champEvery time.Duration // cadence inside champ select
	log        *zap.Logger
	metrics    *obs.Metrics

	// Warm prefetches name data for a freshly locked champion so the
	// resolver's first lookup does not pay network latency.
	Warm func(ctx context.Context, championID int)
	// OnLocale reports the client UI locale, once per connection.
	OnLocale func(locale string)

	nudge      chan struct{}
	localeSent bool
}

func New(cp ControlPlane, state *session.State, starter Starter,
	phaseEvery, champEvery time.Duration, log *zap.Logger, m *obs.Metrics) *Tracker {
	return &Tracker{
		cp:         cp,
		state:      state,
		starter:    starter,
		phaseEvery: phaseEvery,
		champEvery: champEvery,
		log:        log,
		metrics:    m,
		nudge:      make(chan struct{}, 1),
	}
}

// Notify asks for an immediate poll; used by the websocket event feed so
// phase and lock changes land faster than the poll interval.
func (t *Tracker) Notify() {
	select {
	case t.nudge <- struct{}{}:
	default:
	}
}

func (t *Tracker) Run(ctx context.Context) {
	timer := time.NewTimer(t.pollInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-t.nudge:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		if t.state.Stopped() {
			return
		}
		t.Poll(ctx)
		timer.Reset(t.pollInterval())
	}
}

// pollInterval picks the cadence for the next poll: champ select needs
// tight polling, everything else only watches for the phase to change.
func (t *Tracker) pollInterval() time.Duration {
	if t.state.Phase().InChampSelect() {
		return t.champEvery
	}
	return t.phaseEvery
}

// Poll is one observation pass. Control-plane failures degrade to "no new
// information"; they never tear anything down.
func (t *Tracker) Poll(ctx context.Context) {
	raw, err := t.cp.GameflowPhase(ctx)
	if err != nil {
		t.log.Debug("phase read failed", zap.Error(err))
		return
	}
	phase := gameflow.Parse(raw)
	if prev := t.state.Phase(); phase != prev {
		t.state.SetPhase(phase)
		if t.metrics != nil {
			t.metrics.PhaseTransitions.WithLabelValues(string(phase)).Inc()
		}
		t.log.Info("phase transition",
			zap.String("from", string(prev)), zap.String("to", string(phase)))
	}
	if !phase.InChampSelect() {
		return
	}

	if !t.localeSent && t.OnLocale != nil {
		if locale, err := t.cp.Locale(ctx); err == nil && locale != "" {
			t.OnLocale(locale)
			t.localeSent = true
			t.log.Info("client locale", zap.String("locale", locale))
		}
	}

	sess, err := t.cp.ChampSelectSession(ctx)
	if err != nil {
		t.log.Debug("session read failed", zap.Error(err))
		return
	}

	hovered := 0
	for _, m := range sess.MyTeam {
		if m.CellID == sess.LocalPlayerCellID {
			hovered = m.ChampionID
		}
	}
	if hovered == 0 {
		// The session document lags the grid hover early in planning;
		// the current-champion endpoint sees it first.
		if id, err := t.cp.HoveredChampion(ctx); err == nil {
			hovered = id
		}
	}
	if hovered > 0 {
		t.state.SetHoveredChampion(hovered)
	}

	if locked := sess.LockedChampion(); locked > 0 {
		switch kind := t.state.SetLockedChampion(locked, time.Now()); kind {
		case gameflow.LockNew:
			t.log.Info("champion locked", zap.Int("champion", locked))
			t.onLock(ctx, locked)
		case gameflow.LockExchange:
			t.log.Info("champion exchanged", zap.Int("champion", locked))
			t.onLock(ctx, locked)
		}
	}

	if t.starter != nil {
		t.starter.MaybeStart(ctx)
	}
}

func (t *Tracker) onLock(ctx context.Context, championID int) {
	if owned, err := t.cp.OwnedSkins(ctx); err == nil {
		t.state.SetOwnedSkins(owned)
	} else {
		t.log.Warn("ownership read failed", zap.Error(err))
	}
	if t.Warm != nil {
		go t.Warm(ctx, championID)
	}
}
