// Package value implements the portable JSON encoding for chain document
// values. Primitives pass through untouched; timestamps and byte sequences
// travel as tagged data-URI strings so a document survives round-trips
// through any JSON transport.
package value

import (
	"encoding/base64"
	"strings"
	"time"
)

// Tagged string prefixes understood by Decode. Any string that does not
// match a known tag decodes to itself.
const (
	// TimeTag marks an encoded timestamp. The payload is the UTC time in
	// TimeLayout with no sub-second component.
	TimeTag = "data:object;<DateTime>,"

	// BytesTag marks an encoded byte sequence. The payload is standard
	// base64.
	BytesTag = "data:application/octet-stream;base64,"
)

// TimeLayout is the wire layout for encoded timestamps. Fractional seconds
// are not representable and are dropped on encode.
const TimeLayout = "2006-01-02 15:04:05"

// Encode converts a decoded value into its JSON-stable form.
//
// time.Time becomes a TimeTag string in UTC, []byte becomes a BytesTag
// string, maps encode by stringified key with encoded values, and lists
// encode element-wise. Everything else is returned unchanged.
func Encode(v any) any {
	switch val := v.(type) {
	case time.Time:
		return TimeTag + val.UTC().Format(TimeLayout)
	case []byte:
		return BytesTag + base64.StdEncoding.EncodeToString(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Encode(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Encode(e)
		}
		return out
	default:
		return v
	}
}

// Decode reverses Encode. Strings are dispatched on their data: prefix;
// unrecognized strings (including malformed payloads) decode to themselves,
// so Decode is total. Decode(Encode(x)) == x for every supported x.
func Decode(v any) any {
	switch val := v.(type) {
	case string:
		return decodeString(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Decode(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Decode(e)
		}
		return out
	default:
		return v
	}
}

func decodeString(s string) any {
	switch {
	case strings.HasPrefix(s, TimeTag):
		t, err := time.ParseInLocation(TimeLayout, s[len(TimeTag):], time.UTC)
		if err != nil {
			return s
		}
		return t
	case strings.HasPrefix(s, BytesTag):
		b, err := base64.StdEncoding.DecodeString(s[len(BytesTag):])
		if err != nil {
			return s
		}
		return b
	default:
		return s
	}
}
