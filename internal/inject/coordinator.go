// Package inject coordinates the one-shot content swap fired at the end
// of champion select: re-assert the lobby selection, freeze the game
// process while the swap rewrites content, and always leave the process
// running afterwards.
package inject

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lobbyswap/internal/gameflow"
	"lobbyswap/internal/lcu"
	"lobbyswap/internal/obs"
	"lobbyswap/internal/session"
)

// ControlPlane is the slice of the client API the coordinator writes
// through. *lcu.Client satisfies it.
type ControlPlane interface {
	ChampSelectSession(ctx context.Context) (*lcu.ChampSelectSession, error)
	CompletePick(ctx context.Context, actionID, championID int) error
	SelectSkin(ctx context.Context, skinID int) error
	SelectedSkin(ctx context.Context) (int, error)
}

// Applier performs the external content swap for an unowned cosmetic.
type Applier interface {
	Apply(ctx context.Context, label string, championID, skinID int) error
}

// ChampionNamer supplies the canonical champion name for the swap label.
type ChampionNamer interface {
	ChampionName(ctx context.Context, championID int) (string, error)
}

// Notifier surfaces the attempt outcome to the user; nil disables.
type Notifier func(title, body string)

type Config struct {
	LockWait    time.Duration // bounded wait for the injection lock
	Cooldown    time.Duration // minimum spacing between attempts
	Safety      time.Duration // suspension safety timeout
	ProcessName string
}

type Coordinator struct {
	state   *session.State
	cp      ControlPlane
	applier Applier
	finder  ProcessFinder
	names   ChampionNamer
	hist    *History // nil disables persistence
	notify  Notifier
	cfg     Config
	log     *zap.Logger
	metrics *obs.Metrics

	sem chan struct{} // injection lock, capacity 1

	mu          sync.Mutex
	lastAttempt time.Time

	now func() time.Time
}

func NewCoordinator(state *session.State, cp ControlPlane, applier Applier, finder ProcessFinder,
	names ChampionNamer, hist *History, notify Notifier, cfg Config,
	log *zap.Logger, m *obs.Metrics) *Coordinator {
	return &Coordinator{
		state:   state,
		cp:      cp,
		applier: applier,
		finder:  finder,
		names:   names,
		hist:    hist,
		notify:  notify,
		cfg:     cfg,
		log:     log,
		metrics: m,
		sem:     make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Inject runs one injection attempt for the snapshot the scheduler
// captured at trigger time. Concurrent triggers serialize on the
// injection lock; a trigger that cannot take it within the bounded wait
// is dropped rather than queued into a stale future.
func (c *Coordinator) Inject(ctx context.Context, snap session.Snapshot) {
	attemptID := uuid.NewString()
	log := c.log.With(
		zap.String("attempt", attemptID),
		zap.Int("champion", snap.LockedChampID),
		zap.Int("skin", snap.Resolution.SkinID))

	timer := time.NewTimer(c.cfg.LockWait)
	select {
	case c.sem <- struct{}{}:
		timer.Stop()
	case <-timer.C:
		log.Warn("injection lock wait expired, dropping trigger")
		c.outcome("lock_timeout")
		return
	case <-ctx.Done():
		timer.Stop()
		return
	}
	defer func() { <-c.sem }()

	c.mu.Lock()
	if since := c.now().Sub(c.lastAttempt); since < c.cfg.Cooldown {
		c.mu.Unlock()
		log.Info("inside cooldown window, dropping trigger", zap.Duration("since_last", since))
		c.outcome("cooldown")
		return
	}
	c.lastAttempt = c.now()
	c.mu.Unlock()

	started := c.now()
	defer func() {
		if c.metrics != nil {
			c.metrics.InjectionDuration.Observe(c.now().Sub(started).Seconds())
		}
	}()

	championID := snap.LockedChampID
	skinID := snap.Resolution.SkinID
	owned := snap.OwnedSkinIDs[skinID]
	base := gameflow.IsBaseSkin(skinID)

	if owned || base {
		// The client can render it natively; no swap, no suspension.
		verified := c.forceSelect(ctx, log, championID, skinID)
		outcome := "forced"
		if !verified {
			outcome = "forced_verify_failed"
		}
		c.finish(ctx, log, attemptID, championID, skinID, outcome)
		return
	}

	c.ensureBaseSelected(ctx, log, snap)

	label := snap.Resolution.Name
	if cname, err := c.names.ChampionName(ctx, championID); err == nil {
		label = SwapLabel(snap.Resolution.Name, cname)
	}

	mon := NewMonitor(c.finder, c.cfg.ProcessName, c.cfg.Safety, c.log.Named("monitor"), c.metrics)
	monCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go mon.Run(monCtx)

	log.Info("applying content swap", zap.String("label", label))
	err := c.applier.Apply(ctx, label, championID, skinID)

	mon.RequestResume()
	<-mon.Done()

	if err != nil {
		log.Error("content swap failed", zap.Error(err))
		c.finish(ctx, log, attemptID, championID, skinID, "apply_failed")
		return
	}
	c.finish(ctx, log, attemptID, championID, skinID, "applied")
}

// forceSelect re-asserts the pick and sets the selection, then verifies
// through a read-back. Returns false when verification failed; the
// attempt is still considered delivered.
func (c *Coordinator) forceSelect(ctx context.Context, log *zap.Logger, championID, skinID int) bool {
	if sess, err := c.cp.ChampSelectSession(ctx); err == nil {
		if actionID, ok := sess.PickActionID(); ok {
			if err := c.cp.CompletePick(ctx, actionID, championID); err != nil {
				log.Debug("pick re-assert failed", zap.Error(err))
			}
		}
	}
	if err := c.cp.SelectSkin(ctx, skinID); err != nil {
		log.Warn("selection write failed", zap.Error(err))
		return false
	}
	got, err := c.cp.SelectedSkin(ctx)
	if err != nil {
		log.Debug("selection verify read failed", zap.Error(err))
		return true // write went through; treat unverifiable as delivered
	}
	if got != skinID {
		log.Warn("selection verify mismatch", zap.Int("want", skinID), zap.Int("got", got))
		return false
	}
	return true
}

// ensureBaseSelected forces the base variant before an unowned swap so
// the game loads default assets for the external content to replace.
// Skipped when the lobby already has the base variant selected.
func (c *Coordinator) ensureBaseSelected(ctx context.Context, log *zap.Logger, snap session.Snapshot) {
	baseID := gameflow.BaseSkinID(snap.LockedChampID)
	if sess, err := c.cp.ChampSelectSession(ctx); err == nil {
		for _, m := range sess.MyTeam {
			if m.CellID == sess.LocalPlayerCellID && m.SelectedSkinID == baseID {
				return
			}
		}
	}
	log.Info("forcing base variant", zap.Int("base_skin", baseID))
	c.forceSelect(ctx, log, snap.LockedChampID, baseID)
}

func (c *Coordinator) finish(ctx context.Context, log *zap.Logger, attemptID string,
	championID, skinID int, outcome string) {
	c.outcome(outcome)

	success := outcome == "applied" || outcome == "forced"
	if success {
		c.state.SetInjectionDone(true)
	}
	log.Info("injection attempt finished", zap.String("outcome", outcome))

	if c.hist != nil {
		err := c.hist.Record(ctx, Attempt{
			ID:         attemptID,
			ChampionID: championID,
			SkinID:     skinID,
			Outcome:    outcome,
			At:         c.now(),
		})
		if err != nil {
			log.Warn("history write failed", zap.Error(err))
		}
	}
	if c.notify != nil {
		if success {
			c.notify("Skin ready", "Your selection will load into the game.")
		} else {
			c.notify("Skin swap failed", "The game will run with the default selection.")
		}
	}
}

func (c *Coordinator) outcome(o string) {
	if c.metrics != nil {
		c.metrics.Injections.WithLabelValues(o).Inc()
	}
}
