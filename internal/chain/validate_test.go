package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCommand() *Command {
	return &Command{
		Statements: []*Statement{
			{SQLID: "%SYS_USER%", Table: "user", Kind: KindSelect},
			{
				SQLID: "11", Table: "order", Kind: KindInsert,
				Parameters: NewFields().Set("user", "%SYS_USER%"),
			},
			{
				SQLID: "12", Table: "order", Kind: KindUpdate,
				Parameters: NewFields().Set("count", []any{"count + 1"}),
				Where:      Value{Field: "id", Op: "=", Val: int64(1)},
			},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(validCommand()))
}

func TestValidate_InsertNeedsParameters(t *testing.T) {
	cmd := &Command{Statements: []*Statement{
		{SQLID: "1", Table: "t", Kind: KindInsert},
	}}
	errs := Validate(cmd)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "INSERT requires parameters")
}

func TestValidate_UpdateNeedsWhereAndParameters(t *testing.T) {
	cmd := &Command{Statements: []*Statement{
		{SQLID: "1", Table: "t", Kind: KindUpdate},
	}}
	errs := Validate(cmd)
	assert.Len(t, errs, 2)
}

func TestValidate_DuplicateIDs(t *testing.T) {
	cmd := &Command{Statements: []*Statement{
		{SQLID: "1", Table: "a", Kind: KindSelect},
		{SQLID: "1", Table: "b", Kind: KindSelect},
	}}
	errs := Validate(cmd)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "duplicate")
}

func TestValidate_ForwardReference(t *testing.T) {
	cmd := &Command{Statements: []*Statement{
		{
			SQLID: "1", Table: "order_ref", Kind: KindInsert,
			Parameters: NewFields().Set("order", "#order:2#"),
		},
		{
			SQLID: "2", Table: "order", Kind: KindInsert,
			Parameters: NewFields().Set("title", "Water"),
		},
	}}
	errs := Validate(cmd)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "precedes its target")
}

func TestValidate_BackReferenceInOrder(t *testing.T) {
	cmd := &Command{Statements: []*Statement{
		{
			SQLID: "2", Table: "order", Kind: KindInsert,
			Parameters: NewFields().Set("title", "Water"),
		},
		{
			SQLID: "1", Table: "order_ref", Kind: KindInsert,
			Parameters: NewFields().Set("order", "#order:2#").Set("next", []any{"#order:2# + 10"}),
		},
	}}
	assert.Empty(t, Validate(cmd))
}

func TestValidate_MissingTableAndKind(t *testing.T) {
	cmd := &Command{Statements: []*Statement{{SQLID: "1"}}}
	errs := Validate(cmd)
	assert.Len(t, errs, 2)
}
