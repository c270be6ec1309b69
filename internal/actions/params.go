package actions

import "encoding/json"

// Param helpers used by all provider action funcs. Host frameworks hand
// arguments over as untyped maps; these coerce with defaults instead of
// failing on a missing or mistyped value.

// StringParam returns m[key] as a string, or defaultVal.
func StringParam(m map[string]any, key, defaultVal string) string {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	s, ok := v.(string)
	if !ok {
		return defaultVal
	}
	return s
}

// BoolParam returns m[key] as a bool, or defaultVal.
func BoolParam(m map[string]any, key string, defaultVal bool) bool {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// IntParam returns m[key] as an int, or defaultVal. JSON numbers arrive as
// float64 or json.Number depending on the decoder.
func IntParam(m map[string]any, key string, defaultVal int) int {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return defaultVal
		}
		return int(i)
	default:
		return defaultVal
	}
}

// FloatParam returns m[key] as a float64, or defaultVal.
func FloatParam(m map[string]any, key string, defaultVal float64) float64 {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return defaultVal
		}
		return f
	default:
		return defaultVal
	}
}
