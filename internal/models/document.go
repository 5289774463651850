// Package models defines the core data structures used throughout cfgmerge
// including documents, paths, changes, conflicts, and merge records.
package models

import (
	"encoding/json"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Document is a JSON-compatible mapping from string keys to values.
// A value is nil, bool, string, a number, a datetime, []any, or a nested
// map[string]any. Datetimes are time.Time or one of the TOML local types.
// A nil Document represents a document that did not exist.
type Document = map[string]any

// ValueKind is the coarse runtime type of a document value
type ValueKind string

const (
	KindNull     ValueKind = "null"
	KindBool     ValueKind = "bool"
	KindNumber   ValueKind = "number"
	KindString   ValueKind = "string"
	KindDatetime ValueKind = "datetime"
	KindArray    ValueKind = "array"
	KindObject   ValueKind = "object"
	KindUnknown  ValueKind = "unknown"
)

// KindOf returns the ValueKind of v
func KindOf(v any) ValueKind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return KindNumber
	case time.Time, toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return KindDatetime
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindUnknown
	}
}
