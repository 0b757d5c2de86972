/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 15:48:50
 * @FilePath: \pssuai-admin\backend\internal\infra\remote\normalize.go
 * @LastEditTime: 2025-10-24 09:40:16
 */
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// envelopeKeys are the wrapper keys upstream has used for row lists, in priority order.
var envelopeKeys = []string{"rows", "qr_events", "access_events"}

// ShapeError reports JSON that parsed but did not yield a list.
type ShapeError struct {
	// Observed is the JSON type found where a list was expected.
	Observed string
	// Key is the envelope key the value came from, empty for the top level.
	Key string
}

func (e *ShapeError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("Unexpected JSON shape: %s under %q", e.Observed, e.Key)
	}
	return fmt.Sprintf("Unexpected JSON shape: %s", e.Observed)
}

// Normalize parses body and extracts its row list.
// A parse failure is returned as-is; a parsed but non-list body yields *ShapeError.
func Normalize(body []byte) ([]Row, error) {
	value, err := decodeJSON(body)
	if err != nil {
		return nil, err
	}
	return NormalizeValue(value)
}

// NormalizeValue accepts a bare list or an object wrapping the list under one of envelopeKeys.
func NormalizeValue(value any) ([]Row, error) {
	switch typed := value.(type) {
	case []any:
		return toRows(typed), nil
	case map[string]any:
		for _, key := range envelopeKeys {
			inner, ok := typed[key]
			if !ok {
				continue
			}
			list, ok := inner.([]any)
			if !ok {
				return nil, &ShapeError{Observed: jsonType(inner), Key: key}
			}
			return toRows(list), nil
		}
		return nil, &ShapeError{Observed: jsonType(typed)}
	default:
		return nil, &ShapeError{Observed: jsonType(value)}
	}
}

// toRows never returns nil so an empty list stays an empty list.
func toRows(list []any) []Row {
	if list == nil {
		return []Row{}
	}
	return list
}

// decodeJSON decodes a single JSON document, keeping numbers as json.Number.
func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json: trailing data after document")
	}
	return value, nil
}

func jsonType(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

// IsShapeError reports whether err is a *ShapeError.
func IsShapeError(err error) bool {
	var shape *ShapeError
	return errors.As(err, &shape)
}
