package webflow

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SystemFields are managed by Webflow and hidden from editable field lists.
var SystemFields = []string{"_archived", "_draft", "_cid", "_id"}

// IsSystemField reports whether slug is one of SystemFields.
func IsSystemField(slug string) bool {
	for _, s := range SystemFields {
		if s == slug {
			return true
		}
	}
	return false
}

// FieldValue is one (field, value) pair as entered in the node UI.
type FieldValue struct {
	FieldID    string `mapstructure:"fieldId" json:"fieldId"`
	FieldValue any    `mapstructure:"fieldValue" json:"fieldValue"`
}

// ProcessFieldData builds a fieldData object from UI pairs. Pairs with an
// empty id or a nil/empty value are dropped. String values are coerced by
// shape, first match wins:
//
//	"true" / "false"            -> bool
//	numeric (after trimming)    -> float64
//	[...] or {...} valid JSON   -> decoded value
//	anything else               -> string, unchanged
//
// Non-string values are copied as-is. The collection schema is never
// consulted.
func ProcessFieldData(fields []FieldValue) map[string]any {
	data := make(map[string]any, len(fields))

	for _, f := range fields {
		if f.FieldID == "" || f.FieldValue == nil {
			continue
		}
		s, isString := f.FieldValue.(string)
		if !isString {
			data[f.FieldID] = f.FieldValue
			continue
		}
		if s == "" {
			continue
		}
		data[f.FieldID] = coerceString(s)
	}

	return data
}

func coerceString(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}

	if n, ok := parseNumber(s); ok {
		return n
	}

	if (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseNumber accepts the numeric string forms of JavaScript's Number():
// decimal with optional exponent, and unsigned 0x/0o/0b integers. Results
// that are not finite are rejected.
func parseNumber(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}

	if len(t) > 2 && t[0] == '0' {
		base := 0
		switch t[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(t[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}

	if !decimalPattern.MatchString(t) {
		return 0, false
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
