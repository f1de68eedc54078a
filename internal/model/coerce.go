package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceQuantity converts a loosely typed quantity into a number.
// Accepts numbers, numeric strings, json.Number and booleans.
// Blank strings and nil become 0. Anything else (objects, garbage strings,
// "Infinity") is NaN; callers receive the NaN rather than an error.
// Examples: 3 → 3, "2" → 2, " " → 0, nil → 0, "abc" → NaN, "inf" → NaN
func CoerceQuantity(v any) float64 {
	switch q := v.(type) {
	case nil:
		return 0
	case float64:
		return q
	case float32:
		return float64(q)
	case int:
		return float64(q)
	case int32:
		return float64(q)
	case int64:
		return float64(q)
	case json.Number:
		return parseNumber(string(q))
	case string:
		return parseNumber(q)
	case bool:
		if q {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// parseNumber follows numeric-string rules: surrounding whitespace is ignored
// and an empty string is zero. Hex floats, spellings of infinity and
// out-of-range values are NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ParsePrice converts a price field from product data into a float.
// Unlike quantities, malformed prices degrade to 0 so they stay serializable.
// Examples: 12.5 → 12.5, "99.00" → 99, "" → 0, "abc" → 0
func ParsePrice(v any) float64 {
	f := CoerceQuantity(v)
	if !IsFinite(f) {
		return 0
	}
	return f
}

// StringValue renders a product data value as a string.
// Used for identifier-like fields (sku, id, title) that may arrive as numbers.
func StringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
