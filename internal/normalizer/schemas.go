package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DeafMist/market-pulse/internal/models"
)

// missingToken is rendered for absent or null values.
const missingToken = "null"

type bitcoinSchema struct{}

func (bitcoinSchema) Normalize(doc any) (models.Record, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return models.Record{}, fmt.Errorf("%w: want object, got %s", ErrUnexpectedShape, kindOf(doc))
	}
	price, ok := obj["price"]
	if !ok {
		return models.Record{}, fmt.Errorf("%w: price", ErrMissingField)
	}

	return models.Record{
		Title:   "Current Bitcoin price",
		Date:    models.UnknownDate,
		Content: fmt.Sprintf("The current Bitcoin price is %s USD.", render(price)),
	}, nil
}

type blockchainSchema struct{}

func (blockchainSchema) Normalize(doc any) (models.Record, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return models.Record{}, fmt.Errorf("%w: want object, got %s", ErrUnexpectedShape, kindOf(doc))
	}

	return models.Record{
		Title:   "Blockchain network statistics",
		Date:    models.UnknownDate,
		Content: fmt.Sprintf("Hash rate: %s H/s, Transactions today: %s", render(obj["hash_rate"]), render(obj["n_tx"])),
	}, nil
}

// fallbackSchema handles any source without a dedicated schema. It cannot fail.
type fallbackSchema struct{}

func (fallbackSchema) Normalize(doc any) (models.Record, error) {
	return models.Record{
		Title:   "Unknown data",
		Date:    models.UnknownDate,
		Content: encode(doc),
	}, nil
}

// render formats a decoded JSON value for use inside a sentence. Strings are
// unquoted and numbers keep their original literal.
func render(v any) string {
	switch t := v.(type) {
	case nil:
		return missingToken
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return encode(t)
	}
}

// encode renders v as compact JSON without HTML escaping. Maps are emitted
// with sorted keys.
func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
