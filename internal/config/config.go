package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DeafMist/market-pulse/internal/models"
)

// DefaultRunTimeout is used when COLLECTOR_RUN_TIMEOUT is unset or invalid.
const DefaultRunTimeout = 30 * time.Second

// MinRunTimeout keeps the run deadline above the per-request fetch timeout.
const MinRunTimeout = 10 * time.Second

// Configuration validation errors.
var (
	ErrNoSources         = errors.New("at least one source is required")
	ErrSourceMissingName = errors.New("source name is required")
	ErrSourceInvalidURL  = errors.New("source url must be an absolute http(s) url")
	ErrDuplicateSource   = errors.New("duplicate source name")
	ErrRunTimeoutTooLow  = errors.New("COLLECTOR_RUN_TIMEOUT must be at least 10s")
)

// Collector holds configuration for the one-shot collector binary.
type Collector struct {
	Sources     []models.Source
	SourcesFile string
	RunTimeout  time.Duration
}

type sourcesFile struct {
	Sources []models.Source `yaml:"sources"`
}

// DefaultSources returns the built-in upstream endpoints.
func DefaultSources() []models.Source {
	return []models.Source{
		{URL: "https://api.binance.com/api/v3/ticker/price?symbol=BTCUSDT", Name: "Bitcoin"},
		{URL: "https://api.blockchain.info/stats", Name: "Blockchain"},
	}
}

// LoadCollector builds a Collector config from environment variables.
func LoadCollector() (*Collector, error) {
	c := &Collector{
		Sources:     DefaultSources(),
		SourcesFile: lookupEnv("COLLECTOR_SOURCES_FILE"),
		RunTimeout:  durationEnv("COLLECTOR_RUN_TIMEOUT", DefaultRunTimeout),
	}

	if c.SourcesFile != "" {
		sources, err := LoadSources(c.SourcesFile)
		if err != nil {
			return nil, err
		}
		c.Sources = sources
	}

	if c.RunTimeout < MinRunTimeout {
		return nil, ErrRunTimeoutTooLow
	}
	if err := ValidateSources(c.Sources); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadSources reads a YAML source list from path.
func LoadSources(path string) ([]models.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	for i := range f.Sources {
		f.Sources[i].Name = strings.TrimSpace(f.Sources[i].Name)
		f.Sources[i].URL = strings.TrimSpace(f.Sources[i].URL)
	}
	return f.Sources, nil
}

// ValidateSources checks that every source is named uniquely and points at
// an http(s) url.
func ValidateSources(sources []models.Source) error {
	if len(sources) == 0 {
		return ErrNoSources
	}

	seen := make(map[string]struct{}, len(sources))
	for i, s := range sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: %w", i, ErrSourceMissingName)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("source %q: %w", s.Name, ErrDuplicateSource)
		}
		seen[s.Name] = struct{}{}

		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("source %q: %w", s.Name, ErrSourceInvalidURL)
		}
	}
	return nil
}

// lookupEnv returns the trimmed value of key, or "" when unset.
func lookupEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// durationEnv parses key as a time.Duration. Unset or unparsable values yield
// def.
func durationEnv(key string, def time.Duration) time.Duration {
	raw := lookupEnv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
