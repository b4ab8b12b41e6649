package fetcher

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/market-pulse/internal/logger"
	"github.com/DeafMist/market-pulse/internal/models"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/ticker", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"67000.10"}`))
	})
	r.Get("/headers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Accept") + "|" + r.Header.Get("User-Agent")))
	})
	r.Get("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	r.Get("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchReturnsBody(t *testing.T) {
	srv := newUpstream(t)
	f := New(NewHTTPClient(), nil)

	body, err := f.Fetch(context.Background(), models.Source{URL: srv.URL + "/ticker", Name: "Bitcoin"})
	require.NoError(t, err)
	require.JSONEq(t, `{"symbol":"BTCUSDT","price":"67000.10"}`, body)
}

func TestFetchSetsDefaultHeaders(t *testing.T) {
	srv := newUpstream(t)
	f := New(NewHTTPClient(), nil)

	body, err := f.Fetch(context.Background(), models.Source{URL: srv.URL + "/headers", Name: "Echo"})
	require.NoError(t, err)
	require.Equal(t, "application/json|"+userAgent, body)
}

func TestFetchNon2xxIsFailure(t *testing.T) {
	srv := newUpstream(t)
	var buf bytes.Buffer
	f := New(NewHTTPClient(), logger.NewWithWriter(&buf, "test", "debug", ""))

	body, err := f.Fetch(context.Background(), models.Source{URL: srv.URL + "/broken", Name: "Blockchain"})
	require.Empty(t, body)
	require.ErrorIs(t, err, ErrUnexpectedStatus)

	var ferr *Error
	require.True(t, errors.As(err, &ferr))
	require.Equal(t, "Blockchain", ferr.Source)
	require.Contains(t, buf.String(), "level=WARN")
	require.Contains(t, buf.String(), "source=Blockchain")
}

func TestFetchTimeout(t *testing.T) {
	srv := newUpstream(t)
	f := New(NewHTTPClient(), nil)
	f.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := f.Fetch(context.Background(), models.Source{URL: srv.URL + "/slow", Name: "Bitcoin"})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := New(NewHTTPClient(), nil)
	_, err := f.Fetch(context.Background(), models.Source{URL: url, Name: "Gone"})

	var ferr *Error
	require.True(t, errors.As(err, &ferr))
	require.Equal(t, url, ferr.URL)
}

func TestDefaultTimeout(t *testing.T) {
	require.Equal(t, 10*time.Second, New(nil, nil).timeout)
}
