package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/DeafMist/market-pulse/internal/config"
	"github.com/DeafMist/market-pulse/internal/fetcher"
	"github.com/DeafMist/market-pulse/internal/logger"
	"github.com/DeafMist/market-pulse/internal/models"
	"github.com/DeafMist/market-pulse/internal/normalizer"
	"github.com/DeafMist/market-pulse/internal/pipeline"
	"github.com/DeafMist/market-pulse/internal/sink"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	log := logger.New("collector")
	cfg, err := config.LoadCollector()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	run(ctx, log, cfg, fetcher.NewHTTPClient())
}

// run executes one batch. Per-source failures and sink errors are logged, never
// returned: the process exits 0 either way.
func run(ctx context.Context, log *slog.Logger, cfg *config.Collector, client *http.Client) []models.Record {
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	log.Info("collector started",
		slog.Int("sources", len(cfg.Sources)),
		slog.Duration("fetch_timeout", fetcher.Timeout),
	)

	c := pipeline.New(
		fetcher.New(client, log),
		normalizer.New(log),
		sink.NewLogSink(log),
		log,
	)

	records, err := c.Run(ctx, cfg.Sources)
	if err != nil {
		log.Error("deliver records", slog.Any("err", err))
	}
	return records
}
