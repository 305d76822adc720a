// Package resolve turns raw on-screen text into a concrete skin id. The
// pipeline is normalize, pick a language table, exact-match, then fuzzy
// Levenshtein scoring with a configurable acceptance threshold.
package resolve

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"lobbyswap/internal/namedb"
	"lobbyswap/internal/obs"
)

// Match is an accepted resolution.
type Match struct {
	SkinID    int
	Canonical string // English display name, the form the swap layer uses
	Label     string // the label that actually matched, in its language
	Score     float64
	Language  string
	Base      bool
}

type Resolver struct {
	store     *namedb.Store
	threshold float64
	log       *zap.Logger
	metrics   *obs.Metrics

	mu     sync.Mutex
	locale string // control-plane locale, preferred over text detection
}

func NewResolver(store *namedb.Store, threshold float64, log *zap.Logger, m *obs.Metrics) *Resolver {
	return &Resolver{store: store, threshold: threshold, log: log, metrics: m}
}

// SetLocale records the client's UI locale. When set to a non-English
// supported locale it takes precedence over per-text detection, matching
// the client rendering everything in one language.
func (r *Resolver) SetLocale(locale string) {
	r.mu.Lock()
	r.locale = locale
	r.mu.Unlock()
}

func (r *Resolver) language(text string) string {
	r.mu.Lock()
	locale := r.locale
	r.mu.Unlock()
	if locale != "" && locale != "en_US" && namedb.Supported(locale) {
		return locale
	}
	return DetectLanguage(text).Language
}

// Resolve matches text against the locked champion's labels. ok is false
// when nothing clears the threshold; err reports infrastructure failures
// (name data unavailable), not match failures.
func (r *Resolver) Resolve(ctx context.Context, text string, championID int) (Match, bool, error) {
	norm := Normalize(text)
	if norm == "" {
		return Match{}, false, nil
	}

	lang := r.language(text)
	db := r.store.ForLanguage(lang)
	entries, err := db.CandidatesForChampion(ctx, championID)
	if err != nil {
		r.count("error")
		return Match{}, false, err
	}

	best, bestScore, found := namedb.Entry{}, 0.0, false
	for _, e := range entries {
		if Normalize(e.Label) == norm {
			best, bestScore, found = e, 1.0, true
			break
		}
		if s := Score(norm, Normalize(e.Label)); s >= r.threshold && s > bestScore {
			best, bestScore, found = e, s, true
		}
	}
	if !found {
		r.count("miss")
		r.log.Debug("no label cleared threshold",
			zap.String("text", text), zap.String("lang", db.Lang()), zap.Int("champion", championID))
		return Match{}, false, nil
	}

	canonical, err := r.store.CanonicalSkinName(ctx, best.SkinID)
	if err != nil {
		r.count("error")
		return Match{}, false, err
	}

	r.count("hit")
	if r.metrics != nil {
		r.metrics.ResolutionScore.Observe(bestScore)
	}
	r.log.Info("resolved skin",
		zap.String("text", text),
		zap.String("label", best.Label),
		zap.String("canonical", canonical),
		zap.Int("skin_id", best.SkinID),
		zap.Float64("score", bestScore),
		zap.String("lang", db.Lang()))
	return Match{
		SkinID:    best.SkinID,
		Canonical: canonical,
		Label:     best.Label,
		Score:     bestScore,
		Language:  db.Lang(),
		Base:      best.Base,
	}, true, nil
}

// Warm prefetches the candidate tables a freshly locked champion will
// need: the active language for matching and English for canonical
// names. Failures are ignored; the regular lookup path retries.
func (r *Resolver) Warm(ctx context.Context, championID int) {
	lang := r.language("")
	if _, err := r.store.ForLanguage(lang).CandidatesForChampion(ctx, championID); err != nil {
		r.log.Debug("warm fetch failed", zap.String("lang", lang), zap.Error(err))
	}
	if lang != "en_US" {
		if _, err := r.store.English().CandidatesForChampion(ctx, championID); err != nil {
			r.log.Debug("warm fetch failed", zap.String("lang", "en_US"), zap.Error(err))
		}
	}
}

func (r *Resolver) count(outcome string) {
	if r.metrics != nil {
		r.metrics.Resolutions.WithLabelValues(outcome).Inc()
	}
}
