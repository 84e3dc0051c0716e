package services

import "time"

// Helpers for reading the snapshot metadata blob. After a JSONB round trip
// every value is a plain JSON type, so timestamps come back as RFC 3339
// strings and missing keys as nil.

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func stringFieldDefault(m map[string]any, key, fallback string) string {
	if v := stringField(m, key); v != "" {
		return v
	}
	return fallback
}

func optStringField(m map[string]any, key string) *string {
	if v := stringField(m, key); v != "" {
		return &v
	}
	return nil
}

func timeField(m map[string]any, key string, fallback time.Time) time.Time {
	if v := stringField(m, key); v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return fallback
}

func optTimeField(m map[string]any, key string) *time.Time {
	if v := stringField(m, key); v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	}
	return nil
}
