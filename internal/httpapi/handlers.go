package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"lobbyswap/internal/detect"
	"lobbyswap/internal/session"
	"lobbyswap/pkg/types"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Status serves the current session snapshot for overlay clients.
func Status(state *session.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := state.Snapshot()
		st := types.Status{
			Phase:           string(snap.Phase),
			HoveredChampID:  snap.HoveredChampID,
			LockedChampID:   snap.LockedChampID,
			HasResolved:     snap.HasResolved,
			OwnedSkinCount:  len(snap.OwnedSkinIDs),
			CountdownActive: snap.CountdownActive,
			RemainingMS:     snap.RemainingMS,
			InjectionDone:   snap.InjectionDone,
			DetectionPaused: snap.DetectionPause,
		}
		if snap.HasResolved {
			st.Resolution = &types.Resolution{
				SkinID:  snap.Resolution.SkinID,
				Name:    snap.Resolution.Name,
				RawText: snap.Resolution.RawText,
				Score:   snap.Resolution.Score,
				Source:  snap.Resolution.Source,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(st)
	}
}

// PanelOpen arms the echo suppressor for an open variant picker panel.
func PanelOpen(supp *detect.EchoSuppressor, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body types.PanelOpen
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		supp.Open(body.BaseName)
		log.Debug("panel opened", zap.String("base", body.BaseName))
		w.WriteHeader(http.StatusNoContent)
	}
}

func PanelClose(supp *detect.EchoSuppressor, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supp.Close()
		log.Debug("panel closed")
		w.WriteHeader(http.StatusNoContent)
	}
}

// DetectionPause lets the overlay pause on-screen detection while the
// user browses, without tearing the detector down.
func DetectionPause(state *session.State, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body types.DetectionPause
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		state.SetDetectionPaused(body.Paused)
		log.Info("detection pause set", zap.Bool("paused", body.Paused))
		w.WriteHeader(http.StatusNoContent)
	}
}
