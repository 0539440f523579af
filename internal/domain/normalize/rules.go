package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Object is one decoded JSON object of a source record.
type Object = map[string]any

// Rule resolves one logical field from a raw object. ok is false when the
// rule does not apply, letting the next rule in the chain try.
type Rule[T any] func(obj Object) (v T, ok bool)

// Resolve evaluates rules in order and returns the first match.
func Resolve[T any](obj Object, rules []Rule[T]) (T, bool) {
	for _, r := range rules {
		if v, ok := r(obj); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ResolvePtr is Resolve returning nil when no rule matches.
func ResolvePtr[T any](obj Object, rules []Rule[T]) *T {
	v, ok := Resolve(obj, rules)
	if !ok {
		return nil
	}
	return &v
}

// lookup walks nested objects along path. Every step but the last must be an object.
func lookup(obj Object, path []string) (any, bool) {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// StringAt matches a non-blank string (or number) at path.
func StringAt(path ...string) Rule[string] {
	return func(obj Object) (string, bool) {
		v, ok := lookup(obj, path)
		if !ok {
			return "", false
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}

// IntAt matches a non-negative integer at path. Integral floats and numeric strings are accepted.
func IntAt(path ...string) Rule[int64] {
	return func(obj Object) (int64, bool) {
		v, ok := lookup(obj, path)
		if !ok {
			return 0, false
		}
		var n int64
		switch t := v.(type) {
		case json.Number:
			i, err := t.Int64()
			if err != nil {
				f, ferr := t.Float64()
				if ferr != nil || f != math.Trunc(f) {
					return 0, false
				}
				i = int64(f)
			}
			n = i
		case float64:
			if t != math.Trunc(t) {
				return 0, false
			}
			n = int64(t)
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
			if err != nil {
				return 0, false
			}
			n = i
		default:
			return 0, false
		}
		return n, n >= 0
	}
}

// TimeAt matches a parseable timestamp string at path.
func TimeAt(path ...string) Rule[time.Time] {
	str := StringAt(path...)
	return func(obj Object) (time.Time, bool) {
		s, ok := str(obj)
		if !ok {
			return time.Time{}, false
		}
		return ParseTime(s)
	}
}

// ObjectsAt matches a list at path and returns its object elements.
func ObjectsAt(path ...string) Rule[[]Object] {
	return func(obj Object) ([]Object, bool) {
		v, ok := lookup(obj, path)
		if !ok {
			return nil, false
		}
		list, ok := v.([]any)
		if !ok {
			return nil, false
		}
		out := make([]Object, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out, true
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseTime parses the timestamp shapes found in the corpus. Results are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
