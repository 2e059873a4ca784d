package chain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/relaydb/relay/internal/value"
)

// MarshalCanonical produces the deterministic JSON serialization that
// command fingerprinting hashes: object keys sorted,
// strings NFC-normalized, HTML escaping off, integers without exponents.
//
// Unlike the wire form, canonical output is for identity only; it is never
// decoded back.
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(value.Encode(v))
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		return strconv.AppendBool(nil, val), nil
	case string:
		return marshalCanonicalString(val)
	case int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(nil, val, 10), nil
	case float64:
		return strconv.AppendFloat(nil, val, 'f', -1, 64), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalCanonical(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalCanonicalString(k)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := marshalCanonical(val[k])
			if err != nil {
				return nil, fmt.Errorf("value for %q: %w", k, err)
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString emits an NFC-normalized JSON string without HTML
// escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out, nil
}

// Fingerprint returns a stable hex digest of a command's wire form,
// excluding the id: two commands with the same settings, properties, and
// statements fingerprint identically regardless of their names or map
// iteration order.
func (c *Command) Fingerprint() (string, error) {
	wire, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(wire))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return "", err
	}
	if doc, ok := generic.(map[string]any); ok {
		delete(doc, "id")
	}
	canonical, err := marshalCanonical(normalizeNumbers(generic))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// normalizeNumbers rewrites json.Number values into int64/float64 so the
// canonical marshaler accepts a freshly-decoded document.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		return coerceNumber(val)
	case []any:
		for i, e := range val {
			val[i] = normalizeNumbers(e)
		}
		return val
	case map[string]any:
		for k, e := range val {
			val[k] = normalizeNumbers(e)
		}
		return val
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
