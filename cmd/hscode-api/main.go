// Package main provides the classification API server entrypoint.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hscode-tools/hscode-engine/internal/audit"
	"github.com/hscode-tools/hscode-engine/internal/cache"
	"github.com/hscode-tools/hscode-engine/internal/catalog"
	"github.com/hscode-tools/hscode-engine/internal/category"
	"github.com/hscode-tools/hscode-engine/internal/config"
	"github.com/hscode-tools/hscode-engine/internal/embedding"
	"github.com/hscode-tools/hscode-engine/internal/engine"
	"github.com/hscode-tools/hscode-engine/internal/observability"
	"github.com/hscode-tools/hscode-engine/internal/scoring"
)

func main() {
	config.LoadDotEnv()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("Starting classification API")

	db, dialect, err := openDatabase(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Database connection failed")
		os.Exit(1)
	}
	defer db.Close()

	eng, repo, err := buildEngine(logger, cfg, db, dialect)
	if err != nil {
		logger.Error().Err(err).Msg("Engine construction failed")
		os.Exit(1)
	}
	defer eng.Close()

	// Indexes build in the background so probes come up immediately.
	// /ready and the search endpoint report the build state until it
	// finishes.
	go func() {
		if _, err := eng.BuildIndexes(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Index build failed")
		}
	}()

	router := NewRouter(logger, eng, repo, &AppConfig{
		RequestTimeout:  cfg.Server.ReadTimeout,
		DefaultLanguage: cfg.Search.Language,
		APIKeys:         cfg.Server.APIKeys,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// openDatabase connects to the configured catalog database and verifies the
// connection.
func openDatabase(cfg *config.Config) (*sql.DB, catalog.Dialect, error) {
	var (
		db      *sql.DB
		dialect catalog.Dialect
		err     error
	)

	switch cfg.Database.Driver {
	case "postgres":
		db, err = sql.Open("postgres", cfg.Database.Postgres.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.Postgres.ConnMaxLifetime)
		dialect = catalog.DialectPostgres
	default:
		dsn := fmt.Sprintf("file:%s?_journal_mode=%s",
			cfg.Database.SQLite.Path, cfg.Database.SQLite.JournalMode)
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
		dialect = catalog.DialectSQLite
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", cfg.Database.Driver, err)
	}

	return db, dialect, nil
}

// buildEngine assembles the search engine and its collaborators from
// configuration.
func buildEngine(logger *observability.Logger, cfg *config.Config, db *sql.DB, dialect catalog.Dialect) (*engine.SearchEngine, *catalog.Repository, error) {
	repo := catalog.NewRepository(db, dialect)

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding client: %w", err)
	}

	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		recorder = audit.NewRecorder(db, dialect, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.EnsureSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("Audit schema check failed, audit trail disabled")
			recorder = nil
		}
	}

	classifier := category.New()
	if cfg.Search.CategoryTables != "" {
		tables, err := category.LoadTables(cfg.Search.CategoryTables)
		if err != nil {
			return nil, nil, fmt.Errorf("category tables: %w", err)
		}
		classifier = category.NewWithTables(tables)
	}

	eng, err := engine.New(engine.Dependencies{
		Logger:     logger,
		Repository: repo,
		Embedder:   embedder,
		Cache:      buildCache(cfg, logger),
		Audit:      recorder,
		Categories: classifier,
		Scorer: scoring.NewWithConfig(scoring.Config{
			WeakSemanticFloor: cfg.Search.SemanticThreshold - 0.35,
		}),
	}, engine.Config{
		TopSimilar:     cfg.Search.TopSimilar,
		TopSuggestions: cfg.Search.TopSuggestions,
		ValidateTop:    cfg.Search.ValidateTop,
		Workers:        cfg.Search.Workers,
		CacheTTL:       cfg.Cache.TTL,
		AuditSource:    "api",
	})
	if err != nil {
		return nil, nil, err
	}

	return eng, repo, nil
}

// buildEmbedder returns the configured embedding provider. The literal
// base_url "mock" selects the deterministic in-process embedder, which keeps
// development and CI working without a model server.
func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	if cfg.Embedding.BaseURL == "mock" {
		return embedding.NewMockClient(cfg.Embedding.Dimension), nil
	}
	return embedding.NewClient(embedding.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimension:  cfg.Embedding.Dimension,
		Timeout:    cfg.Embedding.Timeout,
		RetryDelay: cfg.Embedding.RetryDelay,
	})
}

// buildCache returns the configured cache backend. An unreachable Redis
// degrades to the in-memory cache instead of failing startup.
func buildCache(cfg *config.Config, logger *observability.Logger) cache.Client {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err == nil {
			return client
		}
		logger.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
	}
	return cache.NewMemoryClient(cache.MemoryConfig{
		MaxEntries:      cfg.Cache.MaxEntries,
		TrimTo:          cfg.Cache.TrimTo,
		JanitorInterval: cfg.Cache.JanitorInterval,
	})
}
