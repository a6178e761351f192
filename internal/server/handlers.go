package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"madfolio/internal/modules/frontier"
	"madfolio/internal/modules/runs"
	"madfolio/internal/services"
)

// FrontierHandlers exposes the optimization pipeline over HTTP.
type FrontierHandlers struct {
	service *services.FrontierService
	runs    *runs.Repository
	log     zerolog.Logger
}

// NewFrontierHandlers creates the frontier API handlers.
func NewFrontierHandlers(service *services.FrontierService, repo *runs.Repository, log zerolog.Logger) *FrontierHandlers {
	return &FrontierHandlers{
		service: service,
		runs:    repo,
		log:     log.With().Str("component", "frontier_handlers").Logger(),
	}
}

// optimizeRequest optionally overrides the configured sweep.
type optimizeRequest struct {
	MuMin   *float64 `json:"mu_min"`
	MuMax   *float64 `json:"mu_max"`
	Points  *int     `json:"points"`
	Spacing *string  `json:"spacing"`
}

// HandleOptimize runs a frontier computation.
// POST /api/optimize
func (h *FrontierHandlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}

	var run *runs.Run
	if req.MuMin == nil && req.MuMax == nil && req.Points == nil && req.Spacing == nil {
		run, err = h.service.Compute(r.Context())
	} else {
		spec := h.service.DefaultSpec()
		if req.MuMin != nil {
			spec.Min = *req.MuMin
		}
		if req.MuMax != nil {
			spec.Max = *req.MuMax
		}
		if req.Points != nil {
			spec.Points = *req.Points
		}
		if req.Spacing != nil {
			spec.Spacing = frontier.Spacing(*req.Spacing)
		}
		run, err = h.service.ComputeWithSpec(r.Context(), spec)
	}
	if err != nil {
		var cfgErr *frontier.ConfigurationError
		if errors.As(err, &cfgErr) {
			http.Error(w, cfgErr.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Optimization failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.log, http.StatusOK, run)
}

// HandleLatestFrontier serves the most recent frontier snapshot.
// GET /api/frontier/latest
func (h *FrontierHandlers) HandleLatestFrontier(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Latest()
	if errors.Is(err, services.ErrNoFrontier) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest frontier")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.log, http.StatusOK, snap)
}

// HandleCorrelation serves the asset correlation matrix.
// GET /api/correlation
func (h *FrontierHandlers) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Correlation(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute correlation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.log, http.StatusOK, report)
}

// HandleBenchmarks serves the benchmark portfolios.
// GET /api/benchmarks
func (h *FrontierHandlers) HandleBenchmarks(w http.ResponseWriter, r *http.Request) {
	benchmarks, err := h.service.Benchmarks(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute benchmarks")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{"benchmarks": benchmarks})
}

// HandleListRuns lists stored runs, newest first.
// GET /api/runs?limit=N
func (h *FrontierHandlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	summaries, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{"runs": summaries})
}

// HandleGetRun serves one stored run with all points and benchmarks.
// GET /api/runs/{uuid}
func (h *FrontierHandlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	run, err := h.runs.Get(r.Context(), id)
	if errors.Is(err, runs.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load run")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.log, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
