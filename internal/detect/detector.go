// Package detect watches the champion-select screen for the hovered
// cosmetic's name and feeds accepted resolutions into the shared state.
// Two interchangeable backends exist: a pixel pipeline over screen
// capture and an accessibility-tree pipeline; both hide behind Backend.
package detect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lobbyswap/internal/obs"
	"lobbyswap/internal/resolve"
	"lobbyswap/internal/session"
)

// Backend produces raw on-screen text. Poll returns ok=false when there
// is nothing new worth resolving this cycle; Interval is the delay the
// backend wants before the next poll; Reset clears per-run memory when
// the gate closes.
type Backend interface {
	Name() string
	Poll(ctx context.Context) (text string, ok bool, err error)
	Interval() time.Duration
	Reset()
}

// Matcher is the resolver surface the detector needs.
type Matcher interface {
	Resolve(ctx context.Context, text string, championID int) (resolve.Match, bool, error)
}

type Detector struct {
	state   *session.State
	backend Backend
	matcher Matcher
	echo    *EchoSuppressor
	gate    GateConfig
	log     *zap.Logger
	metrics *obs.Metrics

	// Focused reports whether the game window has input focus; nil
	// means always focused. Wired to the platform foreground-window
	// query by the caller.
	Focused func() bool

	now func() time.Time

	wasRunning bool
	lastText   string // memo: identical text is not re-resolved
}

func New(state *session.State, backend Backend, matcher Matcher, echo *EchoSuppressor,
	gate GateConfig, log *zap.Logger, m *obs.Metrics) *Detector {
	return &Detector{
		state:   state,
		backend: backend,
		matcher: matcher,
		echo:    echo,
		gate:    gate,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

func (d *Detector) Run(ctx context.Context) {
	for ctx.Err() == nil && !d.state.Stopped() {
		d.Step(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.backend.Interval()):
		}
	}
}

// Step runs one detection cycle.
func (d *Detector) Step(ctx context.Context) {
	snap := d.state.Snapshot()
	focused := d.Focused == nil || d.Focused()
	if !ShouldRun(snap, d.now(), focused, d.gate) {
		if d.wasRunning {
			d.backend.Reset()
			d.lastText = ""
			d.wasRunning = false
		}
		return
	}
	d.wasRunning = true

	text, ok, err := d.backend.Poll(ctx)
	if err != nil {
		d.log.Debug("backend poll failed", zap.String("backend", d.backend.Name()), zap.Error(err))
		return
	}
	if !ok || text == d.lastText {
		return
	}

	if !d.echo.Allow(text) {
		d.log.Debug("suppressed panel echo", zap.String("text", text))
		return
	}

	match, found, err := d.matcher.Resolve(ctx, text, snap.LockedChampID)
	if err != nil {
		d.log.Warn("resolution failed", zap.String("text", text), zap.Error(err))
		return
	}
	d.lastText = text
	if !found {
		return
	}

	d.state.SetResolution(session.Resolution{
		SkinID:  match.SkinID,
		Name:    match.Canonical,
		RawText: text,
		Score:   match.Score,
		Source:  d.backend.Name(),
	})
	d.log.Info("hovered cosmetic",
		zap.String("name", match.Canonical),
		zap.Int("skin_id", match.SkinID),
		zap.Float64("score", match.Score),
		zap.String("backend", d.backend.Name()))
}
