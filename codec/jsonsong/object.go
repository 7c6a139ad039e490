package jsonsong

import (
	"math"
	"strconv"
	"strings"
)

// object is a decoded JSON object. Its accessors report whether a usable
// value was present so callers can keep their defaults otherwise.
type object map[string]any

func asObject(v any) (object, bool) {
	m, ok := v.(map[string]any)
	return object(m), ok
}

func (o object) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o object) float(key string) (float64, bool) {
	switch v := o[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (o object) floatOr(key string, def float64) float64 {
	if f, ok := o.float(key); ok {
		return f
	}
	return def
}

// intIn reads a number rounded into [lo, hi].
func (o object) intIn(key string, lo, hi, def int) int {
	if f, ok := o.float(key); ok {
		return clamp(lo, hi, int(math.Round(f)))
	}
	return def
}

func (o object) floatIn(key string, lo, hi, def float64) float64 {
	if f, ok := o.float(key); ok {
		return math.Max(lo, math.Min(hi, f))
	}
	return def
}

func (o object) boolOr(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (o object) str(key string) (string, bool) {
	s, ok := o[key].(string)
	return s, ok
}

func (o object) array(key string) []any {
	a, _ := o[key].([]any)
	return a
}

func (o object) object(key string) (object, bool) {
	return asObject(o[key])
}

// ints reads an array of numbers, skipping anything else.
func (o object) ints(key string) []int {
	var out []int
	for _, v := range o.array(key) {
		if f, ok := v.(float64); ok {
			out = append(out, int(math.Round(f)))
		}
	}
	return out
}

// nameIndex finds name in names ignoring case, or returns -1.
func nameIndex(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}
