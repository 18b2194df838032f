package ingest

import (
	"fmt"
	"strconv"
)

// Every leaf in the extraction format is wrapped one level deep in a
// {"value": X} envelope. The accessors below unwrap that envelope and
// coerce the inner value; all of them are total over arbitrary input and
// report missing (ok=false) for nil input, non-object input, objects
// without a "value" key, and null values.

// envelopeValue unwraps the {"value": X} envelope.
func envelopeValue(v any) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	inner, ok := m["value"]
	if !ok || inner == nil {
		return nil, false
	}
	return inner, true
}

// section unwraps an enveloped sub-object such as llmData.vendor and
// returns it as a map. Returns nil when the section is missing or not an
// object; indexing a nil map is safe, so callers need no nil checks.
func section(v any) map[string]any {
	inner, ok := envelopeValue(v)
	if !ok {
		return nil
	}
	m, _ := inner.(map[string]any)
	return m
}

// stringValue unwraps an enveloped string leaf. An empty string counts as
// missing: in the upstream format a blank extraction means the field was
// not found in the document.
func stringValue(v any) (string, bool) {
	inner, ok := envelopeValue(v)
	if !ok {
		return "", false
	}
	s, ok := inner.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// stringOr unwraps an enveloped string leaf or returns def when missing.
func stringOr(v any, def string) string {
	if s, ok := stringValue(v); ok {
		return s
	}
	return def
}

// floatValue unwraps an enveloped numeric leaf.
func floatValue(v any) (float64, bool) {
	inner, ok := envelopeValue(v)
	if !ok {
		return 0, false
	}
	switch n := inner.(type) {
	case float64:
		return n, true
	case int: // unlikely from encoding/json, but harmless to support
		return float64(n), true
	}
	return 0, false
}

// floatOr unwraps an enveloped numeric leaf or returns def when missing.
func floatOr(v any, def float64) float64 {
	if n, ok := floatValue(v); ok {
		return n
	}
	return def
}

// stringifyValue renders an enveloped scalar of any type as a string.
// Used for tags the extractor sometimes emits as numbers, such as ledger
// account codes on line items.
func stringifyValue(v any) (string, bool) {
	inner, ok := envelopeValue(v)
	if !ok {
		return "", false
	}
	switch t := inner.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return fmt.Sprint(inner), true
}
