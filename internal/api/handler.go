// Package api serves the operational surface of a long-lived (watch mode)
// pipeline process: Prometheus metrics, health probes, and the latest run
// summary. It is read-only; runs are triggered by feed changes, not HTTP.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/collectionsops/canonpipe/internal/config"
	"github.com/collectionsops/canonpipe/internal/pipeline"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	pipe   *pipeline.Pipeline
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(pipe *pipeline.Pipeline, loader *config.Loader) http.Handler {
	h := &Handler{pipe: pipe, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/runs/latest", h.latestRun)
	h.mux.HandleFunc("GET /v1/config", h.showConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return h.mux
}

// GET /v1/runs/latest returns a summary of the most recent successful run.
func (h *Handler) latestRun(w http.ResponseWriter, r *http.Request) {
	res := h.pipe.Latest()
	if res == nil {
		writeError(w, http.StatusNotFound, "no completed run yet")
		return
	}
	writeJSON(w, http.StatusOK, res.Summary())
}

// GET /v1/config returns the current pipeline configuration.
func (h *Handler) showConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":      cfg.Version,
		"company":      cfg.Company,
		"feeds":        map[string]string{"accounts": cfg.Feeds.Accounts, "activities": cfg.Feeds.Activities},
		"metro_cities": cfg.MetroCities,
		"reports":      cfg.Reports,
	})
}

// GET /healthz always returns 200 for liveness probes.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz returns 503 until the first run has completed.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.pipe.Latest() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "waiting_for_first_run"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
