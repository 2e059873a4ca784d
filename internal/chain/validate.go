package chain

import "fmt"

// ValidationError describes one structural problem in a chain document.
type ValidationError struct {
	SQLID   string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.SQLID != "" {
		return fmt.Sprintf("statement %q: %s: %s", e.SQLID, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a command for the structural problems that would abort
// execution later: missing verbs or tables, empty INSERT/UPDATE parameter
// lists, UPDATE without a predicate, duplicate statement ids, and
// back-references to statements that do not precede their use.
//
// All problems are collected; an empty slice means the command is sound.
func Validate(c *Command) []error {
	var errs []error

	seen := make(map[string]bool)
	executed := make(map[[2]string]bool)

	// Variable statements run during the binding pass, before any
	// main-pass statement, so they are referenceable from everywhere.
	for _, s := range c.Statements {
		if s.IsVariableStatement() {
			executed[[2]string{s.Table, s.SQLID}] = true
		}
	}

	for i, s := range c.Statements {
		if s.SQLID == "" {
			errs = append(errs, &ValidationError{Field: "sqlID", Message: fmt.Sprintf("sqls[%d] has no id", i)})
		}
		if !s.Kind.Valid() {
			errs = append(errs, &ValidationError{SQLID: s.SQLID, Field: "type", Message: fmt.Sprintf("unsupported statement type %q", s.Kind)})
		}
		if s.Table == "" {
			errs = append(errs, &ValidationError{SQLID: s.SQLID, Field: "table", Message: "table is required"})
		}
		if seen[s.SQLID] {
			errs = append(errs, &ValidationError{SQLID: s.SQLID, Field: "sqlID", Message: "duplicate statement id"})
		}
		seen[s.SQLID] = true

		switch s.Kind {
		case KindInsert:
			if s.Parameters.Len() == 0 {
				errs = append(errs, &ValidationError{SQLID: s.SQLID, Field: "parameters", Message: "INSERT requires parameters"})
			}
		case KindUpdate:
			if s.Parameters.Len() == 0 {
				errs = append(errs, &ValidationError{SQLID: s.SQLID, Field: "parameters", Message: "UPDATE requires parameters"})
			}
			if s.Where == nil {
				errs = append(errs, &ValidationError{SQLID: s.SQLID, Field: "where", Message: "UPDATE requires a predicate"})
			}
		}

		errs = append(errs, checkReferences(s, executed)...)

		if !s.IsVariableStatement() {
			executed[[2]string{s.Table, s.SQLID}] = true
		}
	}

	return errs
}

// checkReferences flags #table:id# values that point at statements which
// will not have executed yet. A forward reference resolves to null at run
// time; surfacing it here saves a confusing NULL insert later.
func checkReferences(s *Statement, executed map[[2]string]bool) []error {
	var errs []error
	check := func(v any) {
		for _, ref := range collectRefs(v) {
			if !executed[ref] {
				errs = append(errs, &ValidationError{
					SQLID:   s.SQLID,
					Field:   "parameters",
					Message: fmt.Sprintf("back-reference #%s:%s# precedes its target", ref[0], ref[1]),
				})
			}
		}
	}
	for _, k := range s.Parameters.Keys() {
		v, _ := s.Parameters.Get(k)
		check(v)
	}
	return errs
}

func collectRefs(v any) [][2]string {
	var refs [][2]string
	switch val := v.(type) {
	case string:
		for _, m := range RefPattern.FindAllString(val, -1) {
			if table, sqlID, ok := IsExactRef(m); ok {
				refs = append(refs, [2]string{table, sqlID})
			}
		}
	case []any:
		for _, e := range val {
			refs = append(refs, collectRefs(e)...)
		}
	}
	return refs
}
