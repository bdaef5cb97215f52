// Package main provides the classification engine CLI entrypoint.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

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

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "hscode",
	Short: "Tariff code classification from free-text product descriptions",
	Long: `hscode maps multilingual product descriptions to ten-digit tariff
classification codes using the same engine the API serves.

Use this tool to:
- Classify a product description from the command line
- Build and inspect the in-memory search indexes
- Apply schema migrations and import catalog CSV exports
- Purge cached search results

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}
		logLevel := cfg.Observability.LogLevel
		if !verbose {
			// Interactive runs keep the engine quiet; the UI reports
			// progress instead.
			logLevel = "warn"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       logLevel,
			Format:      logFormat,
			ServiceName: "hscode-cli",
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose engine logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if outputJSON {
				printJSON(map[string]string{
					"version": "0.1.0",
					"go":      "1.23",
				})
				return
			}
			fmt.Println("hscode v0.1.0")
		},
	}
}

// openDatabase opens a database connection based on the configuration.
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
		dialect = catalog.DialectPostgres
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_journal_mode=%s",
			cfg.Database.SQLite.Path, cfg.Database.SQLite.JournalMode)
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.SQLite.MaxOpenConns)
		dialect = catalog.DialectSQLite
	default:
		return nil, "", fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", cfg.Database.Driver, err)
	}

	return db, dialect, nil
}

// buildEmbedder returns the configured embedding provider, falling back to
// the deterministic mock when the HTTP client cannot be constructed. The
// literal base_url "mock" selects the mock directly.
func buildEmbedder(cfg *config.Config) embedding.Embedder {
	if cfg.Embedding.BaseURL == "mock" {
		return embedding.NewMockClient(cfg.Embedding.Dimension)
	}
	client, err := embedding.NewClient(embedding.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimension:  cfg.Embedding.Dimension,
		Timeout:    cfg.Embedding.Timeout,
		RetryDelay: cfg.Embedding.RetryDelay,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create embedding client, using mock")
		return embedding.NewMockClient(cfg.Embedding.Dimension)
	}
	return client
}

// buildEngine assembles a local search engine over the given database. The
// caller owns the database handle; Close on the returned engine releases the
// engine's own resources only.
func buildEngine(cfg *config.Config, db *sql.DB, dialect catalog.Dialect) (*engine.SearchEngine, *catalog.Repository, error) {
	repo := catalog.NewRepository(db, dialect)

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

	// One-shot runs only benefit from a cache shared with the API, so the
	// in-memory driver stays unwired here.
	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, running without result cache")
		} else {
			cacheClient = client
		}
	}

	eng, err := engine.New(engine.Dependencies{
		Logger:     logger,
		Repository: repo,
		Embedder:   buildEmbedder(cfg),
		Cache:      cacheClient,
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
		AuditSource:    "cli",
	})
	if err != nil {
		return nil, nil, err
	}

	return eng, repo, nil
}
