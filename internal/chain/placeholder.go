package chain

import (
	"regexp"
	"strings"
)

// Placeholder grammar. Both forms may appear anywhere a value is textual:
//
//	%NAME%        named variable, resolved during the binding pass
//	#table:id#    back-reference to an already-executed statement
var (
	// VarPattern matches a named variable placeholder.
	VarPattern = regexp.MustCompile(`%[A-Za-z_][A-Za-z0-9_]*%`)

	// RefPattern matches a back-reference placeholder.
	RefPattern = regexp.MustCompile(`#[^:#]+:[^:#]+#`)

	variableID = regexp.MustCompile(`^%[A-Za-z_][A-Za-z0-9_]*%$`)
)

// HasPlaceholder reports whether v contains either placeholder form.
// Scanning descends into lists, so a raw-fragment value like
// ["#order:11# + 10"] counts.
func HasPlaceholder(v any) bool {
	switch val := v.(type) {
	case string:
		return VarPattern.MatchString(val) || RefPattern.MatchString(val)
	case []any:
		for _, e := range val {
			if HasPlaceholder(e) {
				return true
			}
		}
	}
	return false
}

// VariableNames returns the %NAME% placeholders in v, in order of first
// appearance, without the surrounding percent signs.
func VariableNames(v any) []string {
	var names []string
	seen := make(map[string]bool)
	collectVariableNames(v, &names, seen)
	return names
}

func collectVariableNames(v any, names *[]string, seen map[string]bool) {
	switch val := v.(type) {
	case string:
		for _, m := range VarPattern.FindAllString(val, -1) {
			name := strings.Trim(m, "%")
			if !seen[name] {
				seen[name] = true
				*names = append(*names, name)
			}
		}
	case []any:
		for _, e := range val {
			collectVariableNames(e, names, seen)
		}
	}
}

// IsVariableID reports whether a statement id has the %NAME% shape that
// marks a variable-producing statement.
func IsVariableID(sqlID string) bool {
	return variableID.MatchString(sqlID)
}

// IsExactVar reports whether s is exactly one %NAME% placeholder and
// returns the bare name.
func IsExactVar(s string) (string, bool) {
	if variableID.MatchString(s) {
		return strings.Trim(s, "%"), true
	}
	return "", false
}

// IsExactRef reports whether s is exactly one #table:id# back-reference
// and returns its parts.
func IsExactRef(s string) (table, sqlID string, ok bool) {
	if len(s) < 4 || s[0] != '#' || s[len(s)-1] != '#' {
		return "", "", false
	}
	if RefPattern.FindString(s) != s {
		return "", "", false
	}
	body := s[1 : len(s)-1]
	i := strings.Index(body, ":")
	return body[:i], body[i+1:], true
}
