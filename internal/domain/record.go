package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Record is one row as returned by the Cin7 Core API. The API is not
// consistent about key names across endpoints (OrderDate vs SaleOrderDate,
// CombinedReceivingStatus vs CombinedStockStatus), and fields may be absent,
// null, or carry a different JSON type than documented. All accessors take a
// fallback chain of keys and are total: they never panic and resolve missing
// or malformed values to a fixed default ("" for text, 0 for numbers, false
// for booleans, zero time for dates).
type Record map[string]any

// Str returns the first non-empty string value among keys, or "".
func (r Record) Str(keys ...string) string {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// Float returns the first numeric value among keys, or 0. String values are
// parsed after stripping thousands separators.
func (r Record) Float(keys ...string) float64 {
	for _, key := range keys {
		switch v := r[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		case string:
			cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
			if cleaned == "" {
				continue
			}
			if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// Bool returns the first boolean value among keys, or false.
func (r Record) Bool(keys ...string) bool {
	for _, key := range keys {
		switch v := r[key].(type) {
		case bool:
			return v
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes":
				return true
			case "false", "0", "no":
				return false
			}
		}
	}
	return false
}

// Date returns the first parseable date among keys. The API emits either
// full timestamps or plain YYYY-MM-DD strings; only the calendar date part
// is significant for reporting, so longer values are truncated to it.
func (r Record) Date(keys ...string) (time.Time, bool) {
	for _, key := range keys {
		raw, ok := r[key].(string)
		if !ok || raw == "" {
			continue
		}
		if t, ok := ParseDate(raw); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Records returns the nested record list stored under key (line items,
// contact sub-records). Unknown shapes yield nil.
func (r Record) Records(key string) []Record {
	switch v := r[key].(type) {
	case []Record:
		return v
	case []map[string]any:
		out := make([]Record, 0, len(v))
		for _, m := range v {
			out = append(out, Record(m))
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Record(m))
			}
		}
		return out
	}
	return nil
}

// ParseDate parses an API date string. Values longer than a bare date are
// truncated to their first ten characters before parsing.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
