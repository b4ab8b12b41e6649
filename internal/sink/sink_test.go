package sink_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/market-pulse/internal/logger"
	"github.com/DeafMist/market-pulse/internal/models"
	"github.com/DeafMist/market-pulse/internal/sink"
)

func TestLogSinkSend(t *testing.T) {
	var buf bytes.Buffer
	s := sink.NewLogSink(logger.NewWithWriter(&buf, "collector", "info", ""))

	records := []models.Record{
		{Title: "Current Bitcoin price", Date: "unknown", Content: "The current Bitcoin price is 1 USD."},
		{Title: "Blockchain network statistics", Date: "unknown", Content: "Hash rate: 2 H/s, Transactions today: 3"},
	}
	require.NoError(t, s.Send(context.Background(), records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], `msg="sending records to central server"`)
	require.Contains(t, lines[0], "count=2")
	require.Contains(t, lines[1], `entry="Current Bitcoin price: The current Bitcoin price is 1 USD."`)
	require.Contains(t, lines[2], `entry="Blockchain network statistics: Hash rate: 2 H/s, Transactions today: 3"`)
}

func TestLogSinkNilLogger(t *testing.T) {
	require.NoError(t, sink.NewLogSink(nil).Send(context.Background(), nil))
}
