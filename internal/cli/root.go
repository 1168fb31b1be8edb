// Package cli provides the solverctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/solverwatch/internal/cache"
	"github.com/kiranshivaraju/solverwatch/internal/config"
	"github.com/kiranshivaraju/solverwatch/internal/service"
	"github.com/kiranshivaraju/solverwatch/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	noCache bool
	logJSON string

	cfg        *config.Config
	pool       *pgxpool.Pool
	redisCache *cache.RedisCache
	svc        *service.ErrorLogService
	logFile    *os.File
)

// offline marks commands that set up their own connections.
const offline = "offline"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "solverctl",
	Short: "Import solver logs and inspect their error history",
	Long: `solverctl manages the solver jobs stored by solverwatch.

It imports raw solver logs into Postgres, lists and removes jobs, prints the
chart-ready error series of a job, applies schema migrations and clears the
error log payload cache.

Connection settings come from the same environment variables as the server
(DATABASE_URL, REDIS_URL, ...).`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func setup(cmd *cobra.Command, _ []string) error {
	// Skip config for help and shell completion
	if cmd.Name() == "help" || (cmd.HasParent() && cmd.Parent().Name() == "completion") {
		return nil
	}

	if err := setupLogger(); err != nil {
		return err
	}

	var opts []config.LoadOption
	if noCache {
		opts = append(opts, config.WithOptionalRedis())
	}
	var err error
	cfg, err = config.Load(opts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cmd.Annotations[offline] == "true" {
		return nil
	}

	ctx := cmd.Context()
	pool, err = store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	var c cache.Cache = cache.NopCache{}
	if !noCache {
		redisCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w (use --no-cache to skip)", err)
		}
		c = redisCache
	}

	svc = service.NewErrorLogService(store.NewPostgresStore(pool), c, cfg.ErrorLog.CacheTTL, slog.Default())
	return nil
}

func setupLogger() error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	if logJSON == "" {
		slog.SetDefault(config.SetupCLILogger(nil, level))
		return nil
	}
	f, err := os.OpenFile(logJSON, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	slog.SetDefault(config.SetupCLILogger(f, level))
	return nil
}

func teardown(_ *cobra.Command, _ []string) {
	if svc != nil {
		svc.Flush()
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close redis: %v\n", err)
		}
	}
	if pool != nil {
		pool.Close()
	}
	if logFile != nil {
		logFile.Close()
	}
}

// Execute adds all child commands to the root command and runs it.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "run without the Redis payload cache")
	rootCmd.PersistentFlags().StringVar(&logJSON, "log-json", "", "also append JSON logs to this file")

	// Add subcommands
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(cacheCmd)
}
