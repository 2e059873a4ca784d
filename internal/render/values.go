package render

import (
	"strconv"
	"time"

	"github.com/relaydb/relay/internal/dialect"
	"github.com/relaydb/relay/internal/resolve"
	"github.com/relaydb/relay/internal/value"
)

// SQLValue serializes a resolved value into SQL text. All values are
// inlined; there is no driver-level parameter binding in this path.
//
// A one-element list is the raw-fragment escape hatch: its element is
// emitted verbatim with no quoting, which is how expressions like
// `count + 1` reach the SQL text.
//
// String and timestamp literals are single-quoted without escaping
// embedded apostrophes; the wire format fixes this shape. Callers that
// accept untrusted strings must sanitize upstream.
func SQLValue(v any, d dialect.Dialect) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return "'" + val + "'"
	case time.Time:
		return "'" + val.UTC().Format(value.TimeLayout) + "'"
	case []byte:
		return d.RenderBytes(val)
	case []any:
		if len(val) == 0 {
			return "NULL"
		}
		return resolve.Stringify(val[0])
	default:
		return resolve.Stringify(val)
	}
}
