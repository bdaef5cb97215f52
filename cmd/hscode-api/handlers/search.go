// Package handlers provides HTTP handlers for the classification API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hscode-tools/hscode-engine/internal/engine"
	"github.com/hscode-tools/hscode-engine/internal/observability"
)

// SearchHandler serves classification searches.
type SearchHandler struct {
	logger          *observability.Logger
	engine          *engine.SearchEngine
	defaultLanguage string
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(logger *observability.Logger, eng *engine.SearchEngine, defaultLanguage string) *SearchHandler {
	return &SearchHandler{
		logger:          logger,
		engine:          eng,
		defaultLanguage: defaultLanguage,
	}
}

// SearchRequestDTO represents the API request for a classification search.
type SearchRequestDTO struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SearchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required", "")
		return
	}

	language := req.Language
	if language == "" {
		language = h.defaultLanguage
	}

	resp, err := h.engine.Search(ctx, req.Query, language, req.Limit)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, "query is required", "")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client gone or request timed out. The timeout middleware
			// writes the 504, a disconnected client reads nothing.
		default:
			h.logger.Error().Err(err).Msg("Search failed")
			writeError(w, http.StatusInternalServerError, "search failed", err.Error())
		}
		return
	}

	status := http.StatusOK
	if resp.Status == engine.StatusSystemError {
		// The envelope explains the failure; the status code keeps load
		// balancers from routing more traffic to a node that cannot answer.
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// StatsDTO reports index and cache health for operators.
type StatsDTO struct {
	Index engine.IndexStats `json:"index"`
	Cache engine.CacheStats `json:"cache"`
}

// Stats handles GET /api/v1/stats.
func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats()
	if err != nil {
		if errors.Is(err, engine.ErrIndexNotReady) {
			writeError(w, http.StatusServiceUnavailable, "indexes are still building", "")
			return
		}
		h.logger.Error().Err(err).Msg("Stats read failed")
		writeError(w, http.StatusInternalServerError, "stats unavailable", "")
		return
	}

	writeJSON(w, http.StatusOK, StatsDTO{
		Index: stats,
		Cache: h.engine.CacheStats(),
	})
}
