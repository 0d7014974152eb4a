package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// valueKind is the tagged union of field value types the relational
// engine knows how to store. A collection's kinds are inferred once, from
// the first document written, and never re-inferred.
type valueKind int

const (
	kindText valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindTime
	kindJSON
)

func inferKind(v any) valueKind {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindInt
	case float32, float64:
		return kindFloat
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	case map[string]any, []any, Fields:
		return kindJSON
	default:
		return kindText
	}
}

// encodeValue converts a field value into a driver-bindable parameter.
// Nested structures are JSON-encoded; scalars pass through.
func encodeValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, nil
	case map[string]any:
		return marshalJSONValue(t)
	case Fields:
		return marshalJSONValue(map[string]any(t))
	case []any:
		return marshalJSONValue(t)
	default:
		return fmt.Sprint(v), nil
	}
}

func marshalJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json value: %w", err)
	}
	return string(b), nil
}
