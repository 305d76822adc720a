package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"lobbyswap/internal/detect"
	"lobbyswap/internal/gameflow"
	"lobbyswap/internal/session"
	"lobbyswap/pkg/types"
)

func newTestServer(t *testing.T, state *session.State, supp *detect.EchoSuppressor) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(SetupRoutes(state, supp, prometheus.NewRegistry(), zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusReflectsSession(t *testing.T) {
	state := session.New()
	state.SetPhase(gameflow.PhaseChampSelect)
	state.SetLockedChampion(86, time.Now())
	state.SetResolution(session.Resolution{SkinID: 86004, Name: "Dreadknight Garen", Score: 0.91, Source: "pixel"})

	srv := newTestServer(t, state, &detect.EchoSuppressor{})
	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()

	var st types.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Phase != "ChampSelect" || st.LockedChampID != 86 {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Resolution == nil || st.Resolution.SkinID != 86004 {
		t.Fatalf("resolution not served: %+v", st.Resolution)
	}
}

func TestPanelEndpointsDriveSuppressor(t *testing.T) {
	supp := &detect.EchoSuppressor{}
	srv := newTestServer(t, session.New(), supp)

	body := strings.NewReader(`{"base_name":"Dreadknight Garen"}`)
	resp, err := http.Post(srv.URL+"/panel/open", "application/json", body)
	if err != nil {
		t.Fatalf("POST /panel/open: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("open status = %d", resp.StatusCode)
	}
	if supp.Allow("Anything") {
		t.Fatal("detection allowed while panel open")
	}

	resp, err = http.Post(srv.URL+"/panel/close", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /panel/close: %v", err)
	}
	resp.Body.Close()
	if supp.Allow("Dreadknight Garen Chroma") {
		t.Fatal("panel-close echo not swallowed")
	}
}

func TestDetectionPauseEndpoint(t *testing.T) {
	state := session.New()
	srv := newTestServer(t, state, &detect.EchoSuppressor{})

	resp, err := http.Post(srv.URL+"/detection/pause", "application/json",
		strings.NewReader(`{"paused":true}`))
	if err != nil {
		t.Fatalf("POST /detection/pause: %v", err)
	}
	resp.Body.Close()
	if !state.Snapshot().DetectionPause {
		t.Fatal("pause flag not set")
	}
}
