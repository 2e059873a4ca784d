package chain

import (
	"fmt"
	"strings"
)

// Kind is the statement verb.
type Kind string

const (
	KindSelect Kind = "SELECT"
	KindInsert Kind = "INSERT"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

// Valid reports whether k is one of the four supported verbs.
func (k Kind) Valid() bool {
	switch k {
	case KindSelect, KindInsert, KindUpdate, KindDelete:
		return true
	}
	return false
}

// Statement is the abstract representation of one SQL statement in a chain.
//
// Construction is pure data; the trailing result slots default to
// empty/false/nil and are written only by the chain executor after the
// statement runs. A statement whose SQLID has the %NAME% shape is a
// variable-producing statement: it executes during the binding pass only,
// never during the main pass, and its first result column supplies NAME.
type Statement struct {
	SQLID string
	Table string
	Kind  Kind

	// Parameters maps column to value in insertion order; for INSERT and
	// UPDATE the key order is the rendered column order. A one-element
	// list value is a raw SQL fragment emitted verbatim.
	Parameters *Fields

	// Where is the optional predicate tree.
	Where Condition

	// ReturnColumns maps column to alias (nil alias keeps the column
	// name). SELECT uses it as the projection; INSERT uses the first
	// entry to nominate the insert-id column.
	ReturnColumns *Fields

	// OrderBy names a column with an optional direction prefix:
	// ">col" is DESC, "<col" or "col" is ASC.
	OrderBy string

	// Limit is rendered only when positive, and only for SELECT/DELETE.
	Limit int

	// Variables names the placeholders this statement needs bound before
	// rendering; values are filled by the binding pass.
	Variables *Fields

	ReturnLastID bool

	// Result slots, mutated only by the executor.
	Results     []map[string]any
	LastID      any
	Executed    bool
	RenderedSQL string
}

// IsVariableStatement reports whether the statement's id has the %NAME%
// shape marking it as variable-producing.
func (s *Statement) IsVariableStatement() bool {
	return IsVariableID(s.SQLID)
}

// VariableName returns the NAME of a variable-producing statement, or ""
// for regular statements.
func (s *Statement) VariableName() string {
	if !s.IsVariableStatement() {
		return ""
	}
	return strings.Trim(s.SQLID, "%")
}

// RequiredVariables returns the union of the statement's declared variable
// names, the predicate's placeholders, and the placeholders appearing in
// parameter values, in order of first appearance.
func (s *Statement) RequiredVariables() []string {
	var names []string
	seen := make(map[string]bool)
	add := func(list []string) {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	add(s.Variables.Keys())
	if s.Where != nil {
		add(s.Where.RequiredVariables())
	}
	for _, k := range s.Parameters.Keys() {
		v, _ := s.Parameters.Get(k)
		add(VariableNames(v))
	}
	return names
}

// Vars flattens the statement's bound variables into a plain map for
// substitution.
func (s *Statement) Vars() map[string]any {
	return s.Variables.Map()
}

// SetVariable binds name to v on the statement.
func (s *Statement) SetVariable(name string, v any) {
	if s.Variables == nil {
		s.Variables = NewFields()
	}
	s.Variables.Set(name, v)
}

// Describe returns a short human-readable label used in executor logs.
func (s *Statement) Describe() string {
	return fmt.Sprintf("%s %s (sqlID=%s)", s.Kind, s.Table, s.SQLID)
}
