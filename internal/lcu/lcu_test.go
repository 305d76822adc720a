package lcu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParseLockfileBody(t *testing.T) {
	creds, err := parseLockfileBody("LeagueClient:22792:52023:hunter2:https\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Credentials{Name: "LeagueClient", PID: 22792, Port: 52023, Password: "hunter2", Protocol: "https"}
	if creds != want {
		t.Fatalf("creds = %+v, want %+v", creds, want)
	}
}

func TestParseLockfileBodyRejectsShortFields(t *testing.T) {
	if _, err := parseLockfileBody("LeagueClient:22792:52023"); err == nil {
		t.Fatalf("truncated lockfile accepted")
	}
	if _, err := parseLockfileBody("LeagueClient:abc:52023:pw:https"); err == nil {
		t.Fatalf("non-numeric pid accepted")
	}
}

func TestWatchLockfileReportsRewrittenCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lockfile")
	if err := os.WriteFile(path, []byte("LeagueClient:1:50100:old:https"), 0o600); err != nil {
		t.Fatal(err)
	}
	initial, err := ParseLockfile(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan Credentials, 1)
	go WatchLockfile(ctx, path, 5*time.Millisecond, initial,
		func(c Credentials) { changed <- c }, zap.NewNop())

	// Same content: no report.
	select {
	case c := <-changed:
		t.Fatalf("unchanged lockfile reported: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}

	// Client restart rewrites the file with a new port and password.
	if err := os.WriteFile(path, []byte("LeagueClient:2:50200:fresh:https"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changed:
		if c.Port != 50200 || c.Password != "fresh" {
			t.Fatalf("reported creds = %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("rewritten lockfile never reported")
	}
}

func TestSetCredentialsRedirectsClient(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pw, ok := r.BasicAuth(); !ok || pw != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `"ChampSelect"`)
	}))
	defer ts.Close()
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}

	c := NewClient(Credentials{Port: 1, Password: "stale"}, time.Second, zap.NewNop(), nil)
	if _, err := c.GameflowPhase(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("dead port did not degrade: %v", err)
	}

	c.SetCredentials(Credentials{Port: port, Password: "fresh"})
	phase, err := c.GameflowPhase(context.Background())
	if err != nil || phase != "ChampSelect" {
		t.Fatalf("after credential swap: %q %v", phase, err)
	}
	if c.Port() != port {
		t.Fatalf("Port() = %d, want %d", c.Port(), port)
	}
}

func TestLockedChampionFindsCompletedPick(t *testing.T) {
	s := &ChampSelectSession{
		LocalPlayerCellID: 2,
		Actions: [][]ChampSelectAction{
			{
				{ID: 1, ActorCellID: 1, Type: "ban", Completed: true, ChampionID: 55},
			},
			{
				{ID: 4, ActorCellID: 2, Type: "pick", Completed: false, ChampionID: 86},
			},
		},
	}
	if got := s.LockedChampion(); got != 0 {
		t.Fatalf("uncompleted pick reported as lock: %d", got)
	}

	s.Actions[1][0].Completed = true
	if got := s.LockedChampion(); got != 86 {
		t.Fatalf("LockedChampion = %d, want 86", got)
	}

	if id, ok := s.PickActionID(); !ok || id != 4 {
		t.Fatalf("PickActionID = %d,%v, want 4,true", id, ok)
	}
}

func TestParseWAMPEvent(t *testing.T) {
	raw := []byte(`[8, "OnJsonApiEvent", {"uri": "/lol-gameflow/v1/gameflow-phase", "eventType": "Update", "data": "ChampSelect"}]`)
	ev, ok := parseWAMPEvent(raw)
	if !ok {
		t.Fatalf("valid frame rejected")
	}
	if ev.URI != "/lol-gameflow/v1/gameflow-phase" || ev.EventType != "Update" {
		t.Fatalf("event = %+v", ev)
	}

	for _, bad := range []string{``, `[]`, `[3, "ack", {}]`, `[8, "x", {"eventType":"Update"}]`} {
		if _, ok := parseWAMPEvent([]byte(bad)); ok {
			t.Fatalf("frame %q accepted", bad)
		}
	}
}
