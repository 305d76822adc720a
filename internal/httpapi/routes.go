// Package httpapi is the local status sidecar: health, the session
// snapshot, prometheus metrics, and the overlay's panel signals. It
// binds to loopback only; nothing here is meant to face a network.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lobbyswap/internal/detect"
	"lobbyswap/internal/session"
)

func SetupRoutes(state *session.State, supp *detect.EchoSuppressor,
	reg *prometheus.Registry, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/status", Status(state))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Post("/panel/open", PanelOpen(supp, log))
	r.Post("/panel/close", PanelClose(supp, log))
	r.Post("/detection/pause", DetectionPause(state, log))
	return r
}
