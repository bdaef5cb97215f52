package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/observability"
)

// childrenDefaultLimit bounds a prefix listing when the client does not ask
// for a specific page size.
const (
	childrenDefaultLimit = 50
	childrenMaxLimit     = 200
)

// CodesHandler serves authoritative catalog lookups by tariff code.
type CodesHandler struct {
	logger *observability.Logger
	repo   *catalog.Repository
}

// NewCodesHandler creates a new codes handler.
func NewCodesHandler(logger *observability.Logger, repo *catalog.Repository) *CodesHandler {
	return &CodesHandler{
		logger: logger,
		repo:   repo,
	}
}

// CodeDTO represents one catalog entry.
type CodeDTO struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
}

// ChildrenDTO lists the catalog entries nested under a code prefix.
type ChildrenDTO struct {
	Code     string    `json:"code"`
	Children []CodeDTO `json:"children"`
	Total    int       `json:"total"`
}

// Lookup handles GET /api/v1/codes/{code}.
func (h *CodesHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := catalog.NormalizeCode(chi.URLParam(r, "code"))
	if !catalog.ValidCode(code) {
		writeError(w, http.StatusBadRequest, "invalid code format", "expected 4, 6, 8 or 10 digits")
		return
	}

	entry, err := h.repo.LookupByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "code not found", "")
			return
		}
		h.logger.Error().Err(err).Str("code", code).Msg("Code lookup failed")
		writeError(w, http.StatusInternalServerError, "lookup failed", "")
		return
	}

	writeJSON(w, http.StatusOK, toCodeDTO(*entry))
}

// Children handles GET /api/v1/codes/{code}/children. It lists the catalog
// entries one or more levels below the given prefix, shortest codes first.
func (h *CodesHandler) Children(w http.ResponseWriter, r *http.Request) {
	code := catalog.NormalizeCode(chi.URLParam(r, "code"))
	if !catalog.ValidCode(code) {
		writeError(w, http.StatusBadRequest, "invalid code format", "expected 4, 6, 8 or 10 digits")
		return
	}

	limit := childrenDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit", "expected a positive integer")
			return
		}
		if parsed > childrenMaxLimit {
			parsed = childrenMaxLimit
		}
		limit = parsed
	}

	entries, err := h.repo.SearchByPrefix(r.Context(), code, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("code", code).Msg("Prefix listing failed")
		writeError(w, http.StatusInternalServerError, "listing failed", "")
		return
	}

	children := make([]CodeDTO, 0, len(entries))
	for _, entry := range entries {
		children = append(children, toCodeDTO(entry))
	}

	writeJSON(w, http.StatusOK, ChildrenDTO{
		Code:     code,
		Children: children,
		Total:    len(children),
	})
}

func toCodeDTO(entry catalog.Entry) CodeDTO {
	return CodeDTO{
		Code:        entry.Code,
		Description: entry.Description,
		Language:    entry.Language,
	}
}
