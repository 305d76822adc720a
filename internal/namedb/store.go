package namedb

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SupportedLanguages are the locales the client ships. Requests for
// anything else fall back to en_US.
var SupportedLanguages = []string{
	"en_US", "es_ES", "es_MX", "fr_FR", "de_DE", "it_IT", "pl_PL",
	"ro_RO", "el_GR", "pt_BR", "hu_HU", "ru_RU", "tr_TR",
	"zh_CN", "zh_TW", "ja_JP", "ko_KR",
}

func Supported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// Store manages one DB per language, created on demand. English is always
// available and serves as the canonical naming for swap calls regardless
// of the on-screen language.
type Store struct {
	cacheDir string
	log      *zap.Logger
	limiter  *rate.Limiter
	opts     []Option

	mu  sync.Mutex
	dbs map[string]*DB
}

// NewStore builds a store. One shared limiter spans every language so
// total CDN traffic stays bounded.
func NewStore(cacheDir string, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		cacheDir: cacheDir,
		log:      log,
		limiter:  rate.NewLimiter(rate.Limit(4), 2),
		opts:     opts,
		dbs:      map[string]*DB{},
	}
	return s
}

// ForLanguage returns the DB for lang, creating it on first request.
// Unsupported locales get the English DB.
func (s *Store) ForLanguage(lang string) *DB {
	if !Supported(lang) {
		lang = "en_US"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.dbs[lang]; ok {
		return db
	}
	db := New(lang, s.cacheDir, s.limiter, s.log, s.opts...)
	s.dbs[lang] = db
	return db
}

// English is the canonical-language DB.
func (s *Store) English() *DB { return s.ForLanguage("en_US") }

// CanonicalSkinName translates a skin id to its English display name, the
// form the swap tooling expects.
func (s *Store) CanonicalSkinName(ctx context.Context, skinID int) (string, error) {
	name, err := s.English().SkinName(ctx, skinID)
	if err != nil {
		return "", fmt.Errorf("canonical name for %d: %w", skinID, err)
	}
	return name, nil
}
