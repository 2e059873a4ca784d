package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseProperties turns --set NAME=value pairs into typed property
// overrides. Values coerce in order: integer, float, boolean, timestamp
// (any layout dateparse accepts, interpreted as UTC), else string. The
// literal "null" becomes an explicit nil binding.
func ParseProperties(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	props := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property %q: expected NAME=value", pair)
		}
		props[name] = coerceProperty(raw)
	}
	return props, nil
}

func coerceProperty(raw string) any {
	if raw == "null" {
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil && looksTemporal(raw) {
		return t
	}
	return raw
}

// looksTemporal guards against dateparse accepting bare numbers or words.
// A value must contain a date or time separator to coerce.
func looksTemporal(raw string) bool {
	return strings.ContainsAny(raw, "-:/") && len(raw) >= 8
}
