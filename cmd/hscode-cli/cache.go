package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hscode-tools/hscode-engine/internal/cache"
)

// newCacheCmd creates the cache subcommand group.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached search results",
	}

	cmd.AddCommand(newCachePurgeCmd())

	return cmd
}

// newCachePurgeCmd creates the cache purge subcommand.
func newCachePurgeCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop cached search results",
		Long: `Purge removes cached search results from the shared Redis cache, for
example after a catalog reload. The in-memory cache lives inside the API
process and expires on its own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if cfg.Cache.Driver != "redis" {
				return fmt.Errorf("cache driver is %q: only the redis cache can be purged from the CLI", cfg.Cache.Driver)
			}

			client, err := cache.NewRedisClient(cache.RedisConfig{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
				PoolSize: cfg.Cache.Redis.PoolSize,
				Prefix:   cfg.Cache.Redis.Prefix,
			})
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer client.Close()

			if err := client.DeleteByPrefix(ctx, prefix); err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}

			if outputJSON {
				return printJSON(map[string]string{
					"prefix": prefix,
					"status": "purged",
				})
			}

			ui := NewUI(outputJSON, noColor)
			defer ui.Close()
			ui.Success("Purged cached results with prefix %q", prefix)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", cache.SearchKeyPrefix, "key prefix to purge")

	return cmd
}
