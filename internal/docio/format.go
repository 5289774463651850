// Package docio reads and writes configuration documents in JSON, YAML and
// TOML, and resolves the source strings the CLI accepts for them.
package docio

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	gyaml "github.com/goccy/go-yaml"
	"github.com/kilupskalvis/cfgmerge/internal/models"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a document serialization format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrNotMapping is returned when a document's top level is not a mapping
var ErrNotMapping = errors.New("top level is not a mapping")

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unknown format %q (expected json, yaml or toml)", name)
}

// FormatFromPath picks a format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer format of %q: no extension", path)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", fmt.Errorf("cannot infer format of %q: %w", path, err)
	}
	return f, nil
}

// Parse decodes data into a Document. Empty or whitespace-only input, and a
// bare JSON or YAML null, decode to a nil Document meaning absent.
func Parse(data []byte, format Format) (models.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var (
		v   any
		err error
	)
	switch format {
	case FormatJSON:
		v, err = parseJSON(data)
	case FormatYAML:
		err = yaml.Unmarshal(data, &v)
	case FormatTOML:
		var m map[string]any
		err = toml.Unmarshal(data, &m)
		v = m
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}
	if v == nil {
		return nil, nil
	}

	v, err = normalize(v, models.Path{})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse %s: %w (got %s)", format, ErrNotMapping, models.KindOf(v))
	}
	return doc, nil
}

func parseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

// normalize converts decoder output into document values. YAML mappings
// with non-string keys become map[string]any; datetimes are kept as decoded.
func normalize(v any, path models.Path) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			n, err := normalize(e, path.Child(k))
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			key := fmt.Sprint(k)
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("duplicate key %q at %s", key, path)
			}
			n, err := normalize(e, path.Child(key))
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case []any:
		for i, e := range t {
			n, err := normalize(e, path.Child(fmt.Sprint(i)))
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}

// Encode serializes doc. indent is the number of spaces per level; zero
// means compact output for JSON and the encoder default otherwise.
func Encode(doc models.Document, format Format, indent int) ([]byte, error) {
	if doc == nil {
		doc = models.Document{}
	}

	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if indent > 0 {
			enc.SetIndent("", strings.Repeat(" ", indent))
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		opts := []gyaml.EncodeOption{}
		if indent > 0 {
			opts = append(opts, gyaml.Indent(indent), gyaml.IndentSequence(true))
		}
		enc := gyaml.NewEncoder(&buf, opts...)
		if err := enc.Encode(plainValues(doc, FormatYAML)); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		_ = enc.Close()
	case FormatTOML:
		enc := toml.NewEncoder(&buf)
		if indent > 0 {
			enc.SetIndentSymbol(strings.Repeat(" ", indent))
			enc.SetIndentTables(true)
		}
		if err := enc.Encode(plainValues(doc, FormatTOML)); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return buf.Bytes(), nil
}

// plainValues copies v replacing json.Number with int64 or float64, which
// the YAML and TOML encoders understand. For YAML, dates and TOML local
// datetimes are written as plain timestamps instead of quoted strings.
func plainValues(v any, format Format) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValues(e, format)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValues(e, format)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case time.Time:
		if format == FormatYAML && isDate(t) {
			return yamlScalar(t.Format(time.DateOnly))
		}
		return t
	case toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		if format != FormatYAML {
			return v
		}
		text, err := t.(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return v
		}
		return yamlScalar(text)
	default:
		return v
	}
}

// isDate reports whether t is a bare calendar date as YAML decodes one
func isDate(t time.Time) bool {
	return t.Location() == time.UTC && t.Equal(t.Truncate(24*time.Hour))
}

// yamlScalar is emitted verbatim as an unquoted YAML scalar
type yamlScalar string

func (s yamlScalar) MarshalYAML() ([]byte, error) {
	return []byte(s), nil
}
