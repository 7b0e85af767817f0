package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"

	"github.com/drivepulse/drivepulse/internal/aggregate"
	"github.com/drivepulse/drivepulse/internal/broadcast"
	"github.com/drivepulse/drivepulse/internal/config"
	"github.com/drivepulse/drivepulse/internal/engine"
	"github.com/drivepulse/drivepulse/internal/event"
	"github.com/drivepulse/drivepulse/internal/metrics"
	"github.com/drivepulse/drivepulse/internal/store"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	store  *store.Store
	agg    *aggregate.Aggregator
	hub    *broadcast.Hub
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, st *store.Store, agg *aggregate.Aggregator, hub *broadcast.Hub, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, store: st, agg: agg, hub: hub, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/events", h.listEvents)
	h.mux.HandleFunc("GET /v1/stats", h.stats)
	h.mux.HandleFunc("GET /v1/snapshot", h.snapshot)
	h.mux.Handle("GET /v1/stream", websocket.Handler(h.stream))
	h.mux.HandleFunc("GET /v1/alerts/rules", h.listAlertRules)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// ingestResponse mirrors the acceptance body producers already expect.
type ingestResponse struct {
	OK           bool   `json:"ok"`
	ID           string `json:"id"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}

// POST /v1/events — synchronous single-event ingestion.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var raw event.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	res, err := h.eng.IngestSync(r.Context(), raw)
	if err != nil {
		var verr *event.ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, verr)
		case errors.Is(err, engine.ErrQueueFull):
			writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			writeError(w, http.StatusServiceUnavailable, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{OK: true, ID: res.EventID, Deduplicated: res.Deduplicated})
}

// POST /v1/events/batch — async batch ingestion (up to 100 events).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var raws []event.Raw
	if err := json.NewDecoder(r.Body).Decode(&raws); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(raws) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	if len(raws) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(raws), maxBatchSize))
		return
	}

	jobID := uuid.New().String()
	queued := 0
	for _, raw := range raws {
		if h.eng.IngestAsync(raw) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"total":    len(raws),
		"queued":   queued,
		"rejected": len(raws) - queued,
	})
}

// GET /v1/events?type= — stored events in insertion order.
func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.Query(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if events == nil {
		events = []*event.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GET /v1/stats?type= — numeric aggregation over stored events.
// An empty match set is a valid result, never an error.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	res, err := h.agg.Aggregate(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/snapshot — the current dashboard state.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Snapshot())
}

// GET /v1/alerts/rules — the active alert rule set.
func (h *Handler) listAlertRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": h.eng.Rules(),
	})
}

// POST /v1/config/reload — re-read config and swap the alert rule set.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapRules(cfg.Rules())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":    true,
		"rules_count": len(cfg.Alerts),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the ingest queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
