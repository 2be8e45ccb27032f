// Package normalize reduces heterogeneous provider payloads to comparable
// facts and statistics. Payloads are walked as untyped JSON with explicit
// alias tables; no reflection, no per-provider schema types.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func getString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getBool(m map[string]any, key string) (bool, bool) {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// getNumber accepts JSON numbers and numeric strings.
func getNumber(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return toNumber(v)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return parseNumericToken(n)
	default:
		return 0, false
	}
}

var numericTokenRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseNumericToken extracts the first numeric token from a string
// ("45%" -> 45, "4 cards" -> 4).
func parseNumericToken(s string) (float64, bool) {
	tok := numericTokenRe.FindString(s)
	if tok == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func getInt(m map[string]any, key string) (int, bool) {
	f, ok := getNumber(m, key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// normalizeKey reduces a JSON key or label to its alias-table form.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
