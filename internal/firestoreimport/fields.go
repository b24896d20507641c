package firestoreimport

import (
	"fmt"
	"time"
)

// Field readers accept the first present key so both the current and the
// older Firestore property names map. A missing key yields the zero value.

func str(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok {
			return v
		}
	}
	return ""
}

func integer(data map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := data[k].(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

func float(data map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch v := data[k].(type) {
		case float64:
			return v
		case int64:
			return float64(v)
		case int:
			return float64(v)
		}
	}
	return 0
}

func boolean(data map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		if v, ok := data[k].(bool); ok {
			return v, true
		}
	}
	return false, false
}

func stringList(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func object(data map[string]any, key string) map[string]any {
	if m, ok := data[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// timestamp reads a Firestore timestamp or epoch milliseconds.
func timestamp(data map[string]any, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		switch v := data[k].(type) {
		case time.Time:
			return v.UTC(), true
		case int64:
			if v > 0 {
				return time.UnixMilli(v).UTC(), true
			}
		case float64:
			if v > 0 {
				return time.UnixMilli(int64(v)).UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func timestampOr(data map[string]any, def time.Time, keys ...string) time.Time {
	if t, ok := timestamp(data, keys...); ok {
		return t
	}
	return def
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("missing %s", name)
	}
	return nil
}
