// Package pipeline runs one concurrent fetch-and-normalize batch over a set of
// sources and hands the survivors to a sink.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/DeafMist/market-pulse/internal/logger"
	"github.com/DeafMist/market-pulse/internal/models"
	"github.com/DeafMist/market-pulse/internal/sink"
)

// Fetcher retrieves the raw body of one source.
type Fetcher interface {
	Fetch(ctx context.Context, src models.Source) (string, error)
}

// Normalizer maps a raw body into a Record.
type Normalizer interface {
	Normalize(name, raw string) (models.Record, error)
}

// Collector owns no per-batch state; each Run starts from scratch.
type Collector struct {
	fetcher    Fetcher
	normalizer Normalizer
	sink       sink.Sink
	log        *slog.Logger
}

type outcome struct {
	record models.Record
	ok     bool
}

// New builds a Collector.
func New(f Fetcher, n Normalizer, s sink.Sink, log *slog.Logger) *Collector {
	if log == nil {
		log = logger.Discard()
	}
	return &Collector{fetcher: f, normalizer: n, sink: s, log: log}
}

// Run collects one batch and forwards it to the sink when it is non-empty.
// The returned error only reports sink failures.
func (c *Collector) Run(ctx context.Context, sources []models.Source) ([]models.Record, error) {
	records := c.RunBatch(ctx, sources)
	if len(records) == 0 {
		return records, nil
	}
	if err := c.sink.Send(ctx, records); err != nil {
		return records, fmt.Errorf("send records: %w", err)
	}
	return records, nil
}

// RunBatch fetches and normalizes every source concurrently and waits for all
// of them. Successful records are returned in source order.
func (c *Collector) RunBatch(ctx context.Context, sources []models.Source) []models.Record {
	log := c.log.With(slog.String("batch_id", uuid.NewString()))

	outcomes := make([]outcome, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = c.collect(ctx, log, src)
		}()
	}
	wg.Wait()

	records := make([]models.Record, 0, len(sources))
	for _, o := range outcomes {
		if o.ok {
			records = append(records, o.record)
		}
	}

	log.Info("batch collected",
		slog.Int("records", len(records)),
		slog.Int("failed", len(sources)-len(records)),
		slog.Int("sources", len(sources)),
	)
	return records
}

func (c *Collector) collect(ctx context.Context, log *slog.Logger, src models.Source) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("source task panicked", slog.String("source", src.Name), slog.Any("panic", r))
			o = outcome{}
		}
	}()

	raw, err := c.fetcher.Fetch(ctx, src)
	if err != nil {
		return outcome{}
	}

	rec, err := c.normalizer.Normalize(src.Name, raw)
	if err != nil {
		return outcome{}
	}

	log.Debug("source collected", slog.String("source", src.Name))
	return outcome{record: rec, ok: true}
}
