package presenter

import (
	"encoding/json"
	"io"
)

// Present renders data through its entity schema. Returns true when a schema
// matched and rendering was handled; false means the caller should fall back
// to generic output.
func Present(w io.Writer, data any, entityHint string) bool {
	return PresentWithLocale(w, data, entityHint, DetectLocale())
}

// PresentWithLocale is Present with an explicit locale, used by tests.
func PresentWithLocale(w io.Writer, data any, entityHint string, loc Locale) bool {
	schema := Detect(data, entityHint)
	if schema == nil {
		return false
	}

	switch d := data.(type) {
	case map[string]any:
		return RenderDetail(w, schema, d, loc) == nil
	case []map[string]any:
		if len(d) == 0 {
			return false
		}
		return RenderList(w, schema, d, loc) == nil
	}
	return false
}

// ToMap converts a typed model into the generic form the renderer walks.
func ToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// ToMaps converts a slice of typed models for list rendering.
func ToMaps[T any](items []T) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m := ToMap(item); m != nil {
			out = append(out, m)
		}
	}
	return out
}
