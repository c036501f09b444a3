// Package api serves stored analysis runs over HTTP.
package api

import (
	"CCSpectra/internal/chstore"
	"CCSpectra/internal/logging"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// Handler holds the dependencies for API handlers.
type Handler struct {
	querier chstore.Querier
}

// NewHandler creates a Handler backed by q.
func NewHandler(q chstore.Querier) *Handler {
	return &Handler{querier: q}
}

// Router registers every route on a new mux.Router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthHandler).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/runs", h.listRunsHandler).Methods("GET")
	v1.HandleFunc("/runs/{id}", h.getRunHandler).Methods("GET")
	v1.HandleFunc("/runs/{id}/throughput", h.throughputHandler).Methods("GET")
	v1.HandleFunc("/runs/{id}/window", h.windowHandler).Methods("GET")

	// Grafana SimpleJSON datasource
	g := r.PathPrefix("/grafana").Subrouter()
	g.HandleFunc("/", h.healthHandler).Methods("GET")
	g.HandleFunc("/search", h.grafanaSearchHandler).Methods("POST")
	g.HandleFunc("/query", h.grafanaQueryHandler).Methods("POST")
	return r
}

func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listRunsHandler serves GET /api/v1/runs?congestion=bbr&limit=20.
func (h *Handler) listRunsHandler(w http.ResponseWriter, r *http.Request) {
	congestion := r.URL.Query().Get("congestion")
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, fmt.Sprintf("invalid limit %q", s), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.querier.ListRuns(r.Context(), congestion, limit)
	if err != nil {
		h.fail(w, "failed to list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) getRunHandler(w http.ResponseWriter, r *http.Request) {
	run, err := h.querier.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, "failed to get run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) throughputHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.querier.GetRun(r.Context(), id); err != nil {
		h.fail(w, "failed to get run", err)
		return
	}
	points, err := h.querier.Throughput(r.Context(), id)
	if err != nil {
		h.fail(w, "failed to query throughput", err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *Handler) windowHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.querier.GetRun(r.Context(), id); err != nil {
		h.fail(w, "failed to get run", err)
		return
	}
	points, err := h.querier.Window(r.Context(), id)
	if err != nil {
		h.fail(w, "failed to query window", err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// ---- Grafana-specific structs ----
type grafanaQuery struct {
	Targets []struct {
		Target string `json:"target"`
	} `json:"targets"`
}

type timeSeries struct {
	Target     string      `json:"target"`
	Datapoints [][]float64 `json:"datapoints"` // [ [value, timestamp_ms], ... ]
}

// grafanaSearchHandler returns the ids of the most recent runs as targets.
func (h *Handler) grafanaSearchHandler(w http.ResponseWriter, r *http.Request) {
	runs, err := h.querier.ListRuns(r.Context(), "", 0)
	if err != nil {
		h.fail(w, "failed to list runs", err)
		return
	}
	targets := make([]string, 0, len(runs))
	for _, run := range runs {
		targets = append(targets, run.RunID)
	}
	writeJSON(w, http.StatusOK, targets)
}

// grafanaQueryHandler returns the throughput series of every target run,
// anchored at the time the run was generated.
func (h *Handler) grafanaQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req grafanaQuery
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}

	resp := make([]timeSeries, 0, len(req.Targets))
	for _, t := range req.Targets {
		run, err := h.querier.GetRun(r.Context(), t.Target)
		if err != nil {
			h.fail(w, "failed to get run", err)
			return
		}
		points, err := h.querier.Throughput(r.Context(), t.Target)
		if err != nil {
			h.fail(w, "failed to query throughput", err)
			return
		}
		ts := timeSeries{Target: fmt.Sprintf("%s %s", run.Congestion, run.RunID), Datapoints: [][]float64{}}
		for _, p := range points {
			at := run.GeneratedAt.Add(time.Duration(p.Second) * time.Second)
			ts.Datapoints = append(ts.Datapoints, []float64{p.Mbps, float64(at.UnixMilli())})
		}
		resp = append(resp, ts)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, chstore.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	logging.Logger.WithError(err).Error(msg)
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonBytes)
}
