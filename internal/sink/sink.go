package sink

import (
	"context"
	"log/slog"

	"github.com/DeafMist/market-pulse/internal/logger"
	"github.com/DeafMist/market-pulse/internal/models"
)

// Sink receives the successful records of one batch, in source order.
type Sink interface {
	Send(ctx context.Context, records []models.Record) error
}

// LogSink stands in for the central aggregation server by logging each record.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink returns a LogSink writing to log.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = logger.Discard()
	}
	return &LogSink{log: log}
}

// Send logs a summary line and then one line per record. It never fails.
func (s *LogSink) Send(_ context.Context, records []models.Record) error {
	s.log.Info("sending records to central server", slog.Int("count", len(records)))
	for _, r := range records {
		s.log.Info("record", slog.String("entry", r.Title+": "+r.Content))
	}
	return nil
}
