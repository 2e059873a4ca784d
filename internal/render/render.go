// Package render turns an abstract Statement into final SQL text for one
// dialect, composing predicate rendering, placeholder substitution, and
// the inline value serializer. Rendering is pure: a statement with no
// placeholders renders identically on every call.
package render

import (
	"fmt"
	"strings"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/dialect"
	"github.com/relaydb/relay/internal/resolve"
)

// Rendered is the output of rendering one statement. SQL carries every
// value inlined; Ordered and Named hold the substituted parameter values
// for callers that need them after the fact (the executor's insert-id
// fallback reads Named).
type Rendered struct {
	SQL     string
	Ordered []any
	Named   map[string]any
}

// Statement renders s for the given dialect against the chain prefix
// executed so far (used to resolve back-references).
func Statement(s *chain.Statement, d dialect.Dialect, executed []*chain.Statement) (*Rendered, error) {
	idx := resolve.NewIndex(executed)
	vars := s.Vars()

	switch s.Kind {
	case chain.KindInsert:
		return renderInsert(s, d, vars, idx)
	case chain.KindUpdate:
		return renderUpdate(s, d, vars, idx)
	case chain.KindSelect:
		return renderSelect(s, d, vars, idx)
	case chain.KindDelete:
		return renderDelete(s, d, vars, idx)
	default:
		return nil, &BuildError{SQLID: s.SQLID, Reason: fmt.Sprintf("unsupported statement type %q", s.Kind)}
	}
}

func renderInsert(s *chain.Statement, d dialect.Dialect, vars map[string]any, idx resolve.Index) (*Rendered, error) {
	if s.Parameters.Len() == 0 {
		return nil, &BuildError{SQLID: s.SQLID, Reason: "INSERT requires parameters"}
	}

	r := &Rendered{Named: make(map[string]any, s.Parameters.Len())}
	cols := make([]string, 0, s.Parameters.Len())
	vals := make([]string, 0, s.Parameters.Len())
	for _, col := range s.Parameters.Keys() {
		raw, _ := s.Parameters.Get(col)
		v := resolve.Substitute(raw, vars, idx)
		r.Named[col] = v
		r.Ordered = append(r.Ordered, v)
		cols = append(cols, d.QuoteIdent(col))
		vals = append(vals, SQLValue(v, d))
	}

	r.SQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(s.Table),
		strings.Join(cols, " , "),
		strings.Join(vals, " , "),
	)
	return r, nil
}

func renderUpdate(s *chain.Statement, d dialect.Dialect, vars map[string]any, idx resolve.Index) (*Rendered, error) {
	if s.Parameters.Len() == 0 {
		return nil, &BuildError{SQLID: s.SQLID, Reason: "UPDATE requires parameters"}
	}
	where, err := whereClause(s, d, vars, idx)
	if err != nil {
		return nil, err
	}
	if where == "" {
		return nil, &BuildError{SQLID: s.SQLID, Reason: "UPDATE requires a non-empty WHERE"}
	}

	r := &Rendered{Named: make(map[string]any, s.Parameters.Len())}
	sets := make([]string, 0, s.Parameters.Len())
	for _, col := range s.Parameters.Keys() {
		raw, _ := s.Parameters.Get(col)
		v := resolve.Substitute(raw, vars, idx)
		r.Named[col] = v
		r.Ordered = append(r.Ordered, v)
		sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdent(col), SQLValue(v, d)))
	}

	r.SQL = fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		d.QuoteIdent(s.Table),
		strings.Join(sets, " , "),
		where,
	)
	return r, nil
}

func renderSelect(s *chain.Statement, d dialect.Dialect, vars map[string]any, idx resolve.Index) (*Rendered, error) {
	cols := "*"
	if s.ReturnColumns.Len() > 0 {
		parts := make([]string, 0, s.ReturnColumns.Len())
		for _, col := range s.ReturnColumns.Keys() {
			alias, _ := s.ReturnColumns.Get(col)
			if aliasStr, ok := alias.(string); ok && aliasStr != "" {
				parts = append(parts, fmt.Sprintf("%s as %s", d.QuoteIdent(col), d.QuoteIdent(aliasStr)))
			} else {
				parts = append(parts, d.QuoteIdent(col))
			}
		}
		cols = strings.Join(parts, " , ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, d.QuoteIdent(s.Table))

	where, err := whereClause(s, d, vars, idx)
	if err != nil {
		return nil, err
	}
	if where != "" {
		b.WriteString(" WHERE " + where)
	}
	if clause := orderByClause(s.OrderBy, d); clause != "" {
		b.WriteString(clause)
	}
	if s.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", s.Limit)
	}

	return &Rendered{SQL: b.String()}, nil
}

func renderDelete(s *chain.Statement, d dialect.Dialect, vars map[string]any, idx resolve.Index) (*Rendered, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s", d.QuoteIdent(s.Table))

	where, err := whereClause(s, d, vars, idx)
	if err != nil {
		return nil, err
	}
	if where != "" {
		b.WriteString(" WHERE " + where)
	}
	if s.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", s.Limit)
	}

	return &Rendered{SQL: b.String()}, nil
}

func whereClause(s *chain.Statement, d dialect.Dialect, vars map[string]any, idx resolve.Index) (string, error) {
	if s.Where == nil {
		return "", nil
	}
	built, err := Condition(s.Where, d, vars, idx)
	if err != nil {
		return "", &BuildError{SQLID: s.SQLID, Reason: err.Error()}
	}
	return built, nil
}

// orderByClause parses the ordering spec: a leading '>' means DESC, a
// leading '<' or none means ASC (no keyword emitted).
func orderByClause(orderBy string, d dialect.Dialect) string {
	if orderBy == "" {
		return ""
	}
	desc := false
	switch orderBy[0] {
	case '>':
		desc = true
		orderBy = orderBy[1:]
	case '<':
		orderBy = orderBy[1:]
	}
	if orderBy == "" {
		return ""
	}
	clause := " ORDER BY " + d.QuoteIdent(orderBy)
	if desc {
		clause += " DESC"
	}
	return clause
}
