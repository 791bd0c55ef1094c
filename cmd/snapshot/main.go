// Command snapshot rebuilds the static snapshot tree once and exits. It is
// used from CI pipelines and cron jobs where running the full service would
// be overkill.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/utafrali/storefront-sync/internal/config"
	"github.com/utafrali/storefront-sync/internal/repository/postgres"
	"github.com/utafrali/storefront-sync/internal/sanitize"
	"github.com/utafrali/storefront-sync/internal/snapshot"
	"github.com/utafrali/storefront-sync/internal/store"
	"github.com/utafrali/storefront-sync/pkg/database"
	"github.com/utafrali/storefront-sync/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("storefront-snapshot", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()

	pgCfg := cfg.PostgresConfig()
	pool, err := database.NewPostgresPool(connectCtx, &pgCfg, log)
	if err != nil {
		log.Error("failed to connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	var san *sanitize.Sanitizer
	if cfg.BrandName != "" && len(cfg.LegacyBrandNames) > 0 {
		san, err = sanitize.New(sanitize.NewBrandRules(cfg.BrandName, cfg.LegacyBrandNames))
		if err != nil {
			log.Error("failed to build sanitize rules", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	builder := snapshot.NewBuilder(
		postgres.NewCatalogRepository(pool),
		store.NewFileStore(cfg.SnapshotDir),
		san,
		log,
	)

	res, err := builder.Build(ctx)
	if err != nil {
		log.Error("snapshot rebuild failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("snapshot rebuilt",
		slog.Int64("version", res.Version),
		slog.Int("products", res.ProductCount),
		slog.Int("categories", res.CategoryCount),
		slog.Int("files_written", res.FilesWritten),
		slog.Int("files_skipped", res.FilesSkipped),
	)

	if res.FilesSkipped > 0 {
		os.Exit(1)
	}
}
