package utils

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
)

// Num converts any stored or request-supplied value to a finite float64,
// falling back to def on nil, NaN, Inf or non-numeric input. Every
// downstream computation goes through this guard so malformed rows never
// poison a score.
func Num(value interface{}, def float64) float64 {
	switch v := value.(type) {
	case nil:
		return def
	case float64:
		return finiteOr(v, def)
	case float32:
		return finiteOr(float64(v), def)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case sql.NullFloat64:
		if !v.Valid {
			return def
		}
		return finiteOr(v.Float64, def)
	case sql.NullInt64:
		if !v.Valid {
			return def
		}
		return float64(v.Int64)
	case sql.NullString:
		if !v.Valid {
			return def
		}
		return Num(v.String, def)
	case []byte:
		return Num(string(v), def)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return def
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		return finiteOr(f, def)
	default:
		return def
	}
}

// ParseNum parses a request-supplied string as a finite float64. Unlike
// Num it reports whether the input was usable at all, so callers can tell
// a real value apart from a fallback.
func ParseNum(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Clamp bounds v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
