// Package namedb maintains per-language champion and skin name tables
// sourced from the public Data Dragon CDN, with a disk cache so repeat
// runs do not refetch, and lazy per-champion skin loading so startup does
// not issue a request per champion.
package namedb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://ddragon.leagueoflegends.com"

// Entry is one matchable label: a champion name (the base variant) or a
// skin name, tied to the skin id the coordinator would apply.
type Entry struct {
	Label  string
	SkinID int
	Base   bool
}

// DB is the name table for a single language. Construction is cheap; the
// version and champion index load on first use and skins load per
// champion on demand.
type DB struct {
	lang     string
	cacheDir string
	baseURL  string
	httpc    *http.Client
	limiter  *rate.Limiter
	log      *zap.Logger

	mu             sync.Mutex
	version        string
	slugByID       map[int]string
	champNameByID  map[int]string
	entriesByChamp map[string][]Entry
	skinNameByID   map[int]string
	skinsLoaded    map[string]bool
}

// Option tweaks DB construction; used by tests to point at a fake CDN.
type Option func(*DB)

func WithBaseURL(url string) Option {
	return func(d *DB) { d.baseURL = url }
}

// New builds a DB for lang, caching fetched documents under cacheDir.
// All DBs sharing one process should share the limiter so the CDN sees a
// single polite client.
func New(lang, cacheDir string, limiter *rate.Limiter, log *zap.Logger, opts ...Option) *DB {
	d := &DB{
		lang:           lang,
		cacheDir:       cacheDir,
		baseURL:        defaultBaseURL,
		httpc:          &http.Client{Timeout: 10 * time.Second},
		limiter:        limiter,
		log:            log,
		slugByID:       map[int]string{},
		champNameByID:  map[int]string{},
		entriesByChamp: map[string][]Entry{},
		skinNameByID:   map[int]string{},
		skinsLoaded:    map[string]bool{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *DB) Lang() string { return d.lang }

// cachedJSON loads name from the disk cache, fetching and caching url on a
// miss. Corrupted cache files are refetched rather than failed on.
func (d *DB) cachedJSON(ctx context.Context, name, url string, out any) error {
	path := filepath.Join(d.cacheDir, name)
	if data, err := os.ReadFile(path); err == nil {
		if json.Unmarshal(data, out) == nil {
			return nil
		}
		d.log.Debug("cache file corrupted, refetching", zap.String("name", name))
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := d.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", name, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	if err := os.MkdirAll(d.cacheDir, 0o755); err == nil {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			d.log.Debug("cache write failed", zap.String("name", name), zap.Error(err))
		}
	}
	d.log.Info("downloaded name data", zap.String("name", name), zap.String("lang", d.lang))
	return nil
}

// ensureIndex loads the current patch version and the champion index for
// this language. Idempotent; callers hold no lock.
func (d *DB) ensureIndex(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ensureIndexLocked(ctx)
}

func (d *DB) ensureIndexLocked(ctx context.Context) error {
	if d.version != "" {
		return nil
	}

	var versions []string
	if err := d.cachedJSON(ctx, "versions.json", d.baseURL+"/api/versions.json", &versions); err != nil {
		return err
	}
	if len(versions) == 0 {
		return fmt.Errorf("empty version list")
	}
	ver := versions[0]

	var index struct {
		Data map[string]struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"data"`
	}
	name := fmt.Sprintf("champion_%s_%s.json", ver, d.lang)
	url := fmt.Sprintf("%s/cdn/%s/data/%s/champion.json", d.baseURL, ver, d.lang)
	if err := d.cachedJSON(ctx, name, url, &index); err != nil {
		return err
	}

	for slug, obj := range index.Data {
		var id int
		if _, err := fmt.Sscanf(obj.Key, "%d", &id); err != nil || id <= 0 {
			continue
		}
		d.slugByID[id] = slug
		d.champNameByID[id] = obj.Name
	}
	d.version = ver
	d.log.Info("champion index loaded",
		zap.String("lang", d.lang), zap.String("version", ver), zap.Int("champions", len(d.slugByID)))
	return nil
}

// ChampionName returns the champion's display name in this language.
func (d *DB) ChampionName(ctx context.Context, championID int) (string, error) {
	if err := d.ensureIndex(ctx); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.champNameByID[championID]
	if !ok {
		return "", fmt.Errorf("unknown champion id %d", championID)
	}
	return name, nil
}

// CandidatesForChampion returns every matchable label for the champion:
// the champion name itself (resolving to the base variant), each skin
// name, and each "champion + skin" compound. Loads the champion's skin
// document on first call.
func (d *DB) CandidatesForChampion(ctx context.Context, championID int) ([]Entry, error) {
	if err := d.ensureIndex(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	slug, ok := d.slugByID[championID]
	if !ok {
		return nil, fmt.Errorf("unknown champion id %d", championID)
	}
	if err := d.ensureChampLocked(ctx, slug, championID); err != nil {
		return nil, err
	}
	return d.entriesByChamp[slug], nil
}

func (d *DB) ensureChampLocked(ctx context.Context, slug string, championID int) error {
	if d.skinsLoaded[slug] {
		return nil
	}

	var doc struct {
		Data map[string]struct {
			Name  string `json:"name"`
			Skins []struct {
				ID   string `json:"id"`
				Num  int    `json:"num"`
				Name string `json:"name"`
			} `json:"skins"`
		} `json:"data"`
	}
	name := fmt.Sprintf("champion_%s_%s_%s.json", d.version, d.lang, slug)
	url := fmt.Sprintf("%s/cdn/%s/data/%s/champion/%s.json", d.baseURL, d.version, d.lang, slug)
	if err := d.cachedJSON(ctx, name, url, &doc); err != nil {
		return err
	}
	champ, ok := doc.Data[slug]
	if !ok {
		return fmt.Errorf("champion document missing %q", slug)
	}

	champName := champ.Name
	if champName == "" {
		champName = d.champNameByID[championID]
	}

	entries := []Entry{{Label: champName, SkinID: championID * 1000, Base: true}}
	seen := map[string]bool{champName: true}
	for _, s := range champ.Skins {
		var sid int
		if _, err := fmt.Sscanf(s.ID, "%d", &sid); err != nil || sid <= 0 {
			continue
		}
		skinName := s.Name
		if s.Num == 0 || skinName == "" || skinName == "default" {
			d.skinNameByID[sid] = champName
			continue
		}
		d.skinNameByID[sid] = skinName
		for _, label := range []string{skinName, champName + " " + skinName} {
			if seen[label] {
				continue
			}
			entries = append(entries, Entry{Label: label, SkinID: sid})
			seen[label] = true
		}
	}

	d.entriesByChamp[slug] = entries
	d.skinsLoaded[slug] = true
	d.log.Debug("champion skins loaded",
		zap.String("slug", slug), zap.String("lang", d.lang), zap.Int("entries", len(entries)))
	return nil
}

// SkinName returns the display name of a skin id in this language,
// loading the owning champion's document if needed. The champion id is
// the skin id's thousands part.
func (d *DB) SkinName(ctx context.Context, skinID int) (string, error) {
	championID := skinID / 1000
	if _, err := d.CandidatesForChampion(ctx, championID); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.skinNameByID[skinID]
	if !ok {
		return "", fmt.Errorf("unknown skin id %d", skinID)
	}
	return name, nil
}
