package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/relaydb/relay/internal/value"
)

// Fields is a string-keyed mapping that remembers insertion order.
//
// Statement parameters, return columns, and variables all use Fields: for
// INSERT and UPDATE the key order is the rendered column order, and the
// first return column nominates the insert-id fallback, so document order
// must survive the JSON round-trip. Standard Go maps cannot promise that,
// so Fields decodes itself token by token.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields returns an empty ordered mapping.
func NewFields() *Fields {
	return &Fields{values: make(map[string]any)}
}

// Set stores a value under key, appending the key on first insertion.
// Returns the receiver for chained construction in tests and callers.
func (f *Fields) Set(key string, v any) *Fields {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
	return f
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (any, bool) {
	if f == nil || f.values == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// Len returns the number of entries. Safe on a nil receiver.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in insertion order. The slice is shared; callers
// must not mutate it.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return f.keys
}

// First returns the first inserted entry.
func (f *Fields) First() (key string, v any, ok bool) {
	if f.Len() == 0 {
		return "", nil, false
	}
	k := f.keys[0]
	return k, f.values[k], true
}

// Map returns a plain map copy of the entries.
func (f *Fields) Map() map[string]any {
	out := make(map[string]any, f.Len())
	for _, k := range f.Keys() {
		out[k] = f.values[k]
	}
	return out
}

// UnmarshalJSON decodes a JSON object preserving key order. Values pass
// through the value codec, so tagged timestamp and byte strings arrive
// decoded.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	f.keys = nil
	f.values = make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		raw, err := decodeJSONValue(dec)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		f.Set(key, value.Decode(raw))
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the entries in insertion order, running each value
// through the value codec.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(value.Encode(f.values[k]))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeJSONValue reads one JSON value from the decoder into Go types.
// Numbers become int64 when integral, float64 otherwise; objects become
// map[string]any and arrays []any.
func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeTokenValue(dec, tok)
}

func decodeTokenValue(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := make(map[string]any)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj[keyTok.(string)] = v
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			var arr []any
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			if arr == nil {
				arr = []any{}
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		return coerceNumber(t), nil
	default:
		// string, bool, nil
		return t, nil
	}
}

// coerceNumber converts a json.Number to int64 when it has no fraction or
// exponent, float64 otherwise. Unparseable numbers degrade to their string
// form so decoding stays total.
func coerceNumber(n json.Number) any {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
	}
	if fl, err := n.Float64(); err == nil {
		return fl
	}
	return s
}
