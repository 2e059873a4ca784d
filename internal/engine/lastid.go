package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/resolve"
)

// arithPattern matches the two-operand integer arithmetic a raw fragment
// may carry after substitution, e.g. "101 + 10".
var arithPattern = regexp.MustCompile(`^(-?\d+)\s*([+-])\s*(-?\d+)$`)

// ResolveLastID decides which value becomes a statement's logical "last
// inserted id", later exposed to #table:sqlID# references:
//
//  1. A usable driver-returned id (non-zero number, non-empty string)
//     wins.
//  2. Otherwise the first return column nominates a parameter value,
//     looked up in the substituted named values, then in the raw
//     parameters.
//  3. An integer value is the id.
//  4. A one-element raw fragment parses as an integer, or after
//     substitution as two-operand integer arithmetic ("101 + 10" is 111).
//  5. Anything else parses as an integer or resolves to nil.
func ResolveLastID(driverID any, s *chain.Statement, named map[string]any, executed []*chain.Statement) any {
	if id, ok := usableDriverID(driverID); ok {
		return id
	}

	col, _, ok := s.ReturnColumns.First()
	if !ok {
		return nil
	}
	v, ok := named[col]
	if !ok || v == nil {
		v, ok = s.Parameters.Get(col)
		if !ok {
			return nil
		}
	}

	switch val := v.(type) {
	case int:
		return int64(val)
	case int64:
		return val
	case []any:
		if len(val) == 0 {
			return nil
		}
		return fragmentID(val[0], s, executed)
	default:
		return parseInt(resolve.Stringify(v))
	}
}

func usableDriverID(id any) (any, bool) {
	switch v := id.(type) {
	case nil:
		return nil, false
	case int:
		return int64(v), v != 0
	case int64:
		return v, v != 0
	case float64:
		return v, v != 0
	case string:
		return v, v != ""
	default:
		return id, true
	}
}

// fragmentID resolves a raw-fragment element into an id: a plain integer,
// or integer arithmetic once placeholders are substituted.
func fragmentID(elem any, s *chain.Statement, executed []*chain.Statement) any {
	if id := parseInt(resolve.Stringify(elem)); id != nil {
		return id
	}

	substituted := resolve.Substitute(elem, s.Vars(), resolve.NewIndex(executed))
	expr := strings.TrimSpace(resolve.Stringify(substituted))

	m := arithPattern.FindStringSubmatch(expr)
	if m == nil {
		return nil
	}
	a, _ := strconv.ParseInt(m[1], 10, 64)
	b, _ := strconv.ParseInt(m[3], 10, 64)
	if m[2] == "-" {
		return a - b
	}
	return a + b
}

func parseInt(s string) any {
	if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return i
	}
	return nil
}
