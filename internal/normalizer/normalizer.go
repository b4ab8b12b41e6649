// Package normalizer maps raw upstream JSON into models.Record.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/DeafMist/market-pulse/internal/logger"
	"github.com/DeafMist/market-pulse/internal/models"
)

// Normalization errors.
var (
	ErrInvalidJSON     = errors.New("response is not valid JSON")
	ErrMissingField    = errors.New("required field missing")
	ErrUnexpectedShape = errors.New("unexpected document shape")
	ErrSchema          = errors.New("schema failed")
)

// Schema converts one decoded JSON document into a Record. doc holds the
// result of decoding with UseNumber: map[string]any, []any, string,
// json.Number, bool or nil.
type Schema interface {
	Normalize(doc any) (models.Record, error)
}

// Normalizer dispatches on source name to a Schema.
type Normalizer struct {
	schemas  map[string]Schema
	fallback Schema
	log      *slog.Logger
}

// New returns a Normalizer using the default schema registry.
func New(log *slog.Logger) *Normalizer {
	return NewWithSchemas(log, DefaultSchemas())
}

// NewWithSchemas returns a Normalizer using schemas. Names not present fall
// back to the generic schema.
func NewWithSchemas(log *slog.Logger, schemas map[string]Schema) *Normalizer {
	if log == nil {
		log = logger.Discard()
	}
	registry := make(map[string]Schema, len(schemas))
	for name, s := range schemas {
		registry[name] = s
	}
	return &Normalizer{schemas: registry, fallback: fallbackSchema{}, log: log}
}

// DefaultSchemas lists the schemas of the built-in sources.
func DefaultSchemas() map[string]Schema {
	return map[string]Schema{
		"Bitcoin":    bitcoinSchema{},
		"Blockchain": blockchainSchema{},
	}
}

// Normalize parses raw and maps it with the schema registered for name.
// Every failure, including a panic inside a schema, is logged at error level
// and returned.
func (n *Normalizer) Normalize(name, raw string) (rec models.Record, err error) {
	doc, err := decode(raw)
	if err != nil {
		n.log.Error("response is not valid JSON", slog.String("source", name), slog.Any("err", err))
		return models.Record{}, fmt.Errorf("%s: %w", name, err)
	}

	defer func() {
		if r := recover(); r != nil {
			rec = models.Record{}
			err = fmt.Errorf("%s: %w: %v", name, ErrSchema, r)
			n.log.Error("normalize data failed", slog.String("source", name), slog.Any("err", err))
		}
	}()

	rec, err = n.schemaFor(name).Normalize(doc)
	if err != nil {
		n.log.Error("normalize data failed", slog.String("source", name), slog.Any("err", err))
		return models.Record{}, fmt.Errorf("%s: %w", name, err)
	}
	return rec, nil
}

func (n *Normalizer) schemaFor(name string) Schema {
	if s, ok := n.schemas[name]; ok {
		return s
	}
	return n.fallback
}

func decode(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	return doc, nil
}
