// Package main provides the API router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hscode-tools/hscode-engine/cmd/hscode-api/handlers"
	"github.com/hscode-tools/hscode-engine/cmd/hscode-api/middleware"
	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/engine"
	"github.com/hscode-tools/hscode-engine/internal/observability"
)

// AppConfig holds the HTTP-layer configuration.
type AppConfig struct {
	RequestTimeout  time.Duration
	DefaultLanguage string
	APIKeys         []string
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, eng *engine.SearchEngine, repo *catalog.Repository, cfg *AppConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	// Probes stay unauthenticated.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"hscode-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !eng.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	searchHandler := handlers.NewSearchHandler(logger, eng, cfg.DefaultLanguage)
	codesHandler := handlers.NewCodesHandler(logger, repo)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.APIKeys))

		r.Post("/search", searchHandler.Search)
		r.Get("/stats", searchHandler.Stats)

		r.Route("/codes/{code}", func(r chi.Router) {
			r.Get("/", codesHandler.Lookup)
			r.Get("/children", codesHandler.Children)
		})
	})

	return r
}
