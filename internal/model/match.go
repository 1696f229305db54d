package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchOption tunes CanMatch.
type MatchOption func(*matchConfig)

type matchConfig struct {
	caseInsensitive bool
}

// CaseInsensitive compares strings without regard to case.
func CaseInsensitive() MatchOption {
	return func(c *matchConfig) {
		c.caseInsensitive = true
	}
}

// CanMatch reports whether pattern is a subset of v.
//
// A map pattern matches when every key exists in v with a matching value. A
// list pattern matches when each element is matched by at least one element
// of v. Scalars are compared in canonical string form so "1", 1 and 1.0 are
// equal, as are "true" and true. Absent never matches.
func (v *Value) CanMatch(pattern any, opts ...MatchOption) bool {
	if v.IsAbsent() {
		return false
	}
	var cfg matchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if p, ok := pattern.(*Value); ok {
		if p.IsAbsent() {
			return false
		}
		pattern = p.raw
	}
	return valuesMatch(v.raw, normalize(pattern), &cfg)
}

func valuesMatch(actual, expected any, cfg *matchConfig) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	if expectedMap, ok := expected.(map[string]any); ok {
		actualMap, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		return mapsMatch(actualMap, expectedMap, cfg)
	}

	if expectedList, ok := expected.([]any); ok {
		actualList, ok := actual.([]any)
		if !ok {
			return false
		}
		return listsMatch(actualList, expectedList, cfg)
	}

	// A scalar pattern never matches a container.
	switch actual.(type) {
	case map[string]any, []any:
		return false
	}

	a, e := canonical(actual), canonical(expected)
	if cfg.caseInsensitive {
		return strings.EqualFold(a, e)
	}
	return a == e
}

// mapsMatch checks if all key-value pairs in expected exist in actual.
func mapsMatch(actual, expected map[string]any, cfg *matchConfig) bool {
	for key, expectedVal := range expected {
		actualVal, found := actual[key]
		if !found {
			return false
		}
		if !valuesMatch(actualVal, expectedVal, cfg) {
			return false
		}
	}
	return true
}

func listsMatch(actual, expected []any, cfg *matchConfig) bool {
	for _, e := range expected {
		found := false
		for _, a := range actual {
			if valuesMatch(a, e, cfg) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// canonical renders a scalar so that values which drifted through
// serialization compare equal.
func canonical(data any) string {
	switch t := data.(type) {
	case string:
		s := strings.TrimSpace(t)
		switch strings.ToLower(s) {
		case "true", "false":
			return strings.ToLower(s)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	if f, ok := toFloat(data); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", data)
}
