package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/zendmap/internal/config"
	"github.com/yegors/zendmap/internal/storage/sqlite"
	"github.com/yegors/zendmap/pkg/logger"
)

// Catalog is the read side of the station storage
type Catalog interface {
	LatestRun() (*sqlite.RunRecord, error)
	GetStations(runID, operator string) ([]*sqlite.StationRecord, error)
	GetStation(runID string, biptID int64) ([]*sqlite.StationRecord, error)
}

// Handler serves the catalog endpoints
type Handler struct {
	catalog Catalog
	config  *config.Config
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(catalog Catalog, config *config.Config, logger *logger.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		config:  config,
		logger:  logger.Named("api-handler"),
	}
}

// GetHealth reports liveness and the id of the latest run, if any
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	run, err := h.catalog.LatestRun()
	switch {
	case err == nil:
		resp["latest_run"] = run.ID
	case !errors.Is(err, sqlite.ErrRunNotFound):
		h.logger.Error("Failed to read latest run", logger.Error(err))
		resp["status"] = "degraded"
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetLatestRun returns the most recent run with its batch summary
func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.latestRun(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// GetStations lists the stations of a run. Query parameters: operator (short name) and
// run (defaults to the latest run).
func (h *Handler) GetStations(w http.ResponseWriter, r *http.Request) {
	operator := r.URL.Query().Get("operator")
	if operator != "" && !h.knownOperator(operator) {
		h.writeError(w, http.StatusBadRequest, "unknown operator: "+operator)
		return
	}

	runID, ok := h.runID(w, r)
	if !ok {
		return
	}

	records, err := h.catalog.GetStations(runID, operator)
	if err != nil {
		h.logger.Error("Failed to list stations",
			logger.String("run_id", runID),
			logger.String("operator", operator),
			logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list stations")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   runID,
		"count":    len(records),
		"stations": records,
	})
}

// GetStation returns every operator's record of one registry site
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	biptID, err := strconv.ParseInt(chi.URLParam(r, "bipt_id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid bipt_id")
		return
	}

	runID, ok := h.runID(w, r)
	if !ok {
		return
	}

	records, err := h.catalog.GetStation(runID, biptID)
	if errors.Is(err, sqlite.ErrStationNotFound) {
		h.writeError(w, http.StatusNotFound, "station not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to get station", logger.Int64("bipt_id", biptID), logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to get station")
		return
	}

	h.writeJSON(w, http.StatusOK, records)
}

// GetOperators lists the configured operators
func (h *Handler) GetOperators(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.config.Operators)
}

func (h *Handler) knownOperator(short string) bool {
	for _, op := range h.config.Operators {
		if op.Short == short {
			return true
		}
	}
	return false
}

func (h *Handler) runID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if id := r.URL.Query().Get("run"); id != "" {
		return id, true
	}
	run, ok := h.latestRun(w)
	if !ok {
		return "", false
	}
	return run.ID, true
}

func (h *Handler) latestRun(w http.ResponseWriter) (*sqlite.RunRecord, bool) {
	run, err := h.catalog.LatestRun()
	if errors.Is(err, sqlite.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "no runs recorded")
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to read latest run", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to read latest run")
		return nil, false
	}
	return run, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
