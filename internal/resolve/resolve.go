// Package resolve substitutes %NAME% variable placeholders and #table:id#
// back-references into statement values. Substitution is pure: it reads
// bound variables and the executed prefix of the chain and never touches a
// connection. The binding pass that produces variable values lives in the
// engine package.
package resolve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/value"
)

// Index is the back-reference lookup, rebuilt once per chain execution.
// The first statement with a given (table, sqlID) pair wins, matching the
// in-order scan the document format implies.
type Index map[[2]string]*chain.Statement

// NewIndex builds an Index over the statements executed so far.
func NewIndex(executed []*chain.Statement) Index {
	idx := make(Index, len(executed))
	for _, s := range executed {
		key := [2]string{s.Table, s.SQLID}
		if _, ok := idx[key]; !ok {
			idx[key] = s
		}
	}
	return idx
}

// Lookup returns the referenced statement, or nil when the reference does
// not resolve (unknown target, or a forward reference).
func (idx Index) Lookup(table, sqlID string) *chain.Statement {
	return idx[[2]string{table, sqlID}]
}

// RefValue is the value a back-reference substitutes: the statement's
// LastID when set, otherwise its result rows.
func RefValue(s *chain.Statement) any {
	if s == nil {
		return nil
	}
	if s.LastID != nil {
		return s.LastID
	}
	if s.Results == nil {
		return nil
	}
	rows := make([]any, len(s.Results))
	for i, r := range s.Results {
		rows[i] = r
	}
	return rows
}

// Substitute resolves every placeholder in v against the bound variables
// and the executed chain. Idempotent: values without placeholders come
// back unchanged.
//
// Lists recurse element-wise, preserving the list shape so one-element raw
// fragments stay raw fragments. A string that is exactly one placeholder
// substitutes the bound value itself, whatever its type (including nil);
// otherwise each occurrence inside the string is replaced by its
// stringified value, with the literal "null" standing in for anything
// unresolved.
func Substitute(v any, vars map[string]any, idx Index) any {
	switch val := v.(type) {
	case string:
		return substituteString(val, vars, idx)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Substitute(e, vars, idx)
		}
		return out
	default:
		return v
	}
}

func substituteString(s string, vars map[string]any, idx Index) any {
	if name, ok := chain.IsExactVar(s); ok {
		return vars[name]
	}
	if table, sqlID, ok := chain.IsExactRef(s); ok {
		return RefValue(idx.Lookup(table, sqlID))
	}

	out := chain.VarPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.Trim(m, "%")
		return Stringify(vars[name])
	})
	out = chain.RefPattern.ReplaceAllStringFunc(out, func(m string) string {
		table, sqlID, _ := chain.IsExactRef(m)
		return Stringify(RefValue(idx.Lookup(table, sqlID)))
	})
	return out
}

// Stringify renders a value for in-string substitution. Missing values
// become the literal "null"; timestamps use the wire layout in UTC.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(value.TimeLayout)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
