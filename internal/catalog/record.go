package catalog

import (
	"strconv"
	"strings"
)

// Record is a semi-structured payload as decoded from the catalog API. Offer
// nodes arrive with inconsistent field names across API revisions (snake_case,
// camelCase, nested containers), so lookups take an alias list and return the
// first non-empty value.
type Record map[string]any

// String returns the first non-empty string value among the aliased keys.
// Numeric values are rendered to their decimal form.
func (r Record) String(keys ...string) string {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		case int64:
			return strconv.FormatInt(v, 10)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

// Int64 returns the first numeric value among the aliased keys. String values
// that parse as integers count.
func (r Record) Int64(keys ...string) (int64, bool) {
	for _, key := range keys {
		switch v := r[key].(type) {
		case float64:
			return int64(v), true
		case int64:
			return v, true
		case int:
			return int64(v), true
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Child returns the first nested record among the aliased keys, or nil.
func (r Record) Child(keys ...string) Record {
	for _, key := range keys {
		if child, ok := r[key].(map[string]any); ok && len(child) > 0 {
			return Record(child)
		}
	}
	return nil
}
