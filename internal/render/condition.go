package render

import (
	"fmt"
	"strings"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/dialect"
	"github.com/relaydb/relay/internal/resolve"
)

// Condition renders a predicate tree into a SQL fragment. Leaf values are
// substituted first when they carry placeholders; a value that resolves to
// the literal null (case-insensitive) normalizes equality operators to
// IS NULL / IS NOT NULL. A group of exactly one child renders without the
// outer parentheses.
func Condition(c chain.Condition, d dialect.Dialect, vars map[string]any, idx resolve.Index) (string, error) {
	switch node := c.(type) {
	case chain.Value:
		return conditionLeaf(node, d, vars, idx), nil
	case chain.Group:
		return conditionGroup(node, d, vars, idx)
	default:
		return "", fmt.Errorf("unsupported condition type %T", c)
	}
}

func conditionLeaf(leaf chain.Value, d dialect.Dialect, vars map[string]any, idx resolve.Index) string {
	v := leaf.Val
	if chain.HasPlaceholder(v) {
		v = resolve.Substitute(v, vars, idx)
	}

	field := d.QuoteIdent(leaf.Field)

	if strings.EqualFold(resolve.Stringify(v), "null") {
		switch leaf.Op {
		case "=", "==":
			return field + " IS NULL"
		case "!=", "<>":
			return field + " IS NOT NULL"
		}
	}

	return fmt.Sprintf("%s %s %s", field, leaf.Op, SQLValue(v, d))
}

func conditionGroup(g chain.Group, d dialect.Dialect, vars map[string]any, idx resolve.Index) (string, error) {
	if len(g.Conditions) == 0 {
		return "", nil
	}
	if len(g.Conditions) == 1 {
		return Condition(g.Conditions[0], d, vars, idx)
	}

	word := " AND "
	if g.Or {
		word = " OR "
	}

	parts := make([]string, 0, len(g.Conditions))
	for _, child := range g.Conditions {
		built, err := Condition(child, d, vars, idx)
		if err != nil {
			return "", err
		}
		if built != "" {
			parts = append(parts, built)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "( " + strings.Join(parts, word) + " )", nil
}
