// Package lcu talks to the League client's local control plane: a
// loopback HTTPS API authenticated with credentials from the client
// lockfile, plus a websocket event feed on the same port.
package lcu

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"lobbyswap/internal/obs"
)

// ErrUnavailable marks control-plane failures the pollers should treat as
// transient: the client is down, restarting, or not yet in a state where
// the endpoint exists. Never fatal.
var ErrUnavailable = errors.New("lcu unavailable")

// Client is a thin wrapper over the local HTTPS API. Safe for concurrent
// use; all methods honor the passed context. Credentials are swappable so
// a client restart mid-run only needs a lockfile re-read, not a rebuild.
type Client struct {
	mu      sync.RWMutex
	base    string
	creds   Credentials
	http    *http.Client
	log     *zap.Logger
	metrics *obs.Metrics
}

// NewClient builds a client for the given credentials. The API presents a
// self-signed certificate on loopback, so verification is disabled.
func NewClient(creds Credentials, timeout time.Duration, log *zap.Logger, m *obs.Metrics) *Client {
	return &Client{
		base: fmt.Sprintf("https://127.0.0.1:%d", creds.Port),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		creds:   creds,
		log:     log,
		metrics: m,
	}
}

// SetCredentials swaps in fresh lockfile credentials after the client
// restarted on a new port. In-flight requests finish against the old one.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = fmt.Sprintf("https://127.0.0.1:%d", creds.Port)
	c.creds = creds
}

// Port exposes the control-plane port for the event feed dialer.
func (c *Client) Port() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds.Port
}

// Password exposes the basic-auth secret for the event feed dialer.
func (c *Client) Password() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds.Password
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		rdr = bytes.NewReader(buf)
	}
	c.mu.RLock()
	base, password := c.base, c.creds.Password
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, method, base+path, rdr)
	if err != nil {
		return err
	}
	req.SetBasicAuth("riot", password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.count(path, "error")
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.count(path, fmt.Sprint(resp.StatusCode))
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: status %d: %s",
			ErrUnavailable, method, path, resp.StatusCode, bytes.TrimSpace(payload))
	}
	c.count(path, "ok")

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) count(endpoint, result string) {
	if c.metrics != nil {
		c.metrics.LCURequests.WithLabelValues(endpoint, result).Inc()
	}
}

// GameflowPhase returns the raw gameflow phase string.
func (c *Client) GameflowPhase(ctx context.Context) (string, error) {
	var phase string
	if err := c.do(ctx, http.MethodGet, "/lol-gameflow/v1/gameflow-phase", nil, &phase); err != nil {
		return "", err
	}
	return phase, nil
}

// ChampSelectSession mirrors the slice of the session document we consume.
type ChampSelectSession struct {
	LocalPlayerCellID int                   `json:"localPlayerCellId"`
	Actions           [][]ChampSelectAction `json:"actions"`
	MyTeam            []TeamMember          `json:"myTeam"`
	Timer             SessionTimer          `json:"timer"`
}

type ChampSelectAction struct {
	ID          int    `json:"id"`
	ActorCellID int    `json:"actorCellId"`
	ChampionID  int    `json:"championId"`
	Type        string `json:"type"`
	Completed   bool   `json:"completed"`
}

type TeamMember struct {
	CellID         int `json:"cellId"`
	ChampionID     int `json:"championId"`
	SelectedSkinID int `json:"selectedSkinId"`
}

type SessionTimer struct {
	AdjustedTimeLeftInPhase int    `json:"adjustedTimeLeftInPhase"`
	Phase                   string `json:"phase"`
	IsInfinite              bool   `json:"isInfinite"`
}

// ChampSelectSession fetches the live champ-select session document.
func (c *Client) ChampSelectSession(ctx context.Context) (*ChampSelectSession, error) {
	var s ChampSelectSession
	if err := c.do(ctx, http.MethodGet, "/lol-champ-select/v1/session", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LockedChampion extracts the local player's completed pick from a session
// document. Returns 0 when nothing is locked yet.
func (s *ChampSelectSession) LockedChampion() int {
	for _, round := range s.Actions {
		for _, a := range round {
			if a.ActorCellID == s.LocalPlayerCellID && a.Type == "pick" && a.Completed && a.ChampionID > 0 {
				return a.ChampionID
			}
		}
	}
	return 0
}

// PickActionID finds the local player's pick action id, completed or not.
// Returns false when the session has no pick action for the player.
func (s *ChampSelectSession) PickActionID() (int, bool) {
	for _, round := range s.Actions {
		for _, a := range round {
			if a.ActorCellID == s.LocalPlayerCellID && a.Type == "pick" {
				return a.ID, true
			}
		}
	}
	return 0, false
}

// HoveredChampion returns the champion the local player currently hovers.
func (c *Client) HoveredChampion(ctx context.Context) (int, error) {
	var id int
	if err := c.do(ctx, http.MethodGet, "/lol-champ-select/v1/current-champion", nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

type inventoryItem struct {
	ItemID int  `json:"itemId"`
	Owned  bool `json:"owned"`
}

// OwnedSkins lists the skin ids the account owns.
func (c *Client) OwnedSkins(ctx context.Context) ([]int, error) {
	var items []inventoryItem
	err := c.do(ctx, http.MethodGet,
		"/lol-inventory/v2/inventory/CHAMPION_SKIN", nil, &items)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(items))
	for _, it := range items {
		if it.Owned {
			ids = append(ids, it.ItemID)
		}
	}
	return ids, nil
}

type regionLocale struct {
	Locale string `json:"locale"`
}

// Locale returns the client UI locale, e.g. "en_US", or "" when the
// endpoint is unavailable.
func (c *Client) Locale(ctx context.Context) (string, error) {
	var rl regionLocale
	if err := c.do(ctx, http.MethodGet, "/riotclient/region-locale", nil, &rl); err != nil {
		return "", err
	}
	return rl.Locale, nil
}

// CompletePick force-completes the player's pick action for championID.
// Used to re-assert the lock before forcing a skin.
func (c *Client) CompletePick(ctx context.Context, actionID, championID int) error {
	body := map[string]any{"championId": championID, "completed": true}
	path := fmt.Sprintf("/lol-champ-select/v1/session/actions/%d", actionID)
	return c.do(ctx, http.MethodPatch, path, body, nil)
}

// SelectSkin sets the player's selected skin for the locked champion.
func (c *Client) SelectSkin(ctx context.Context, skinID int) error {
	body := map[string]any{"selectedSkinId": skinID}
	return c.do(ctx, http.MethodPatch, "/lol-champ-select/v1/session/my-selection", body, nil)
}

type mySelection struct {
	SelectedSkinID int `json:"selectedSkinId"`
}

// SelectedSkin reads back the currently selected skin id for verification.
func (c *Client) SelectedSkin(ctx context.Context) (int, error) {
	var ms mySelection
	if err := c.do(ctx, http.MethodGet, "/lol-champ-select/v1/session/my-selection", nil, &ms); err != nil {
		return 0, err
	}
	return ms.SelectedSkinID, nil
}
