package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/DeafMist/market-pulse/internal/logger"
	"github.com/DeafMist/market-pulse/internal/models"
)

// Timeout bounds every upstream request. It is not configurable.
const Timeout = 10 * time.Second

// ErrUnexpectedStatus is returned for any non-2xx upstream response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Error describes a transport-level failure for one source.
type Error struct {
	Source string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Source, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher performs bounded GET requests over a shared client.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// New wraps client. The client is shared across concurrent Fetch calls.
func New(client *http.Client, log *slog.Logger) *Fetcher {
	if client == nil {
		client = NewHTTPClient()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Fetcher{client: client, timeout: Timeout, log: log}
}

// Fetch returns the raw body of src.URL. Failures are logged at warn level
// and returned as *Error.
func (f *Fetcher) Fetch(ctx context.Context, src models.Source) (string, error) {
	body, err := f.get(ctx, src.URL)
	if err != nil {
		ferr := &Error{Source: src.Name, URL: src.URL, Err: err}
		f.log.Warn("fetch source failed",
			slog.String("source", src.Name),
			slog.String("url", src.URL),
			slog.Any("err", err),
		)
		return "", ferr
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
		return "", fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}
