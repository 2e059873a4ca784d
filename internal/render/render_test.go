package render

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydb/relay/internal/chain"
	"github.com/relaydb/relay/internal/dialect"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// The variable SELECT that supplies %SYS_USER% in the basic chain.
func variableSelectUser() *chain.Statement {
	return &chain.Statement{
		SQLID:         "%SYS_USER%",
		Table:         "user",
		Kind:          chain.KindSelect,
		ReturnColumns: chain.NewFields().Set("user_id", "id"),
		Where:         chain.Value{Field: "id", Op: ">", Val: int64(0)},
		OrderBy:       ">user_id",
		Limit:         1,
	}
}

func TestStatement_VariableSelect(t *testing.T) {
	r, err := Statement(variableSelectUser(), dialect.Generic, nil)
	require.NoError(t, err)
	golden(t).Assert(t, "variable_select_user", []byte(r.SQL))
}

func TestStatement_NestedPredicateNullNormalization(t *testing.T) {
	s := &chain.Statement{
		SQLID:         "%TAB_NUMBER%",
		Table:         "tab",
		Kind:          chain.KindSelect,
		ReturnColumns: chain.NewFields().Set("num", nil),
		Where: chain.And(
			chain.Value{Field: "serie", Op: "=", Val: "tabs"},
			chain.Or(
				chain.Value{Field: "status", Op: "=", Val: "free"},
				chain.Value{Field: "status", Op: "=", Val: nil},
			),
		),
		OrderBy: ">num",
		Limit:   1,
	}

	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	golden(t).Assert(t, "select_null_normalization", []byte(r.SQL))
}

func TestStatement_InsertWithPlaceholders(t *testing.T) {
	s := &chain.Statement{
		SQLID: "11",
		Table: "order",
		Kind:  chain.KindInsert,
		Parameters: chain.NewFields().
			Set("product", int64(123)).
			Set("price", 10.2).
			Set("title", "Water").
			Set("user", "%SYS_USER%").
			Set("tab", "%TAB_NUMBER%"),
		Variables: chain.NewFields().
			Set("SYS_USER", "u10").
			Set("TAB_NUMBER", int64(301)),
	}

	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	golden(t).Assert(t, "insert_placeholders", []byte(r.SQL))

	assert.Equal(t, "u10", r.Named["user"])
	assert.Equal(t, int64(301), r.Named["tab"])
}

func TestStatement_UpdateWithRawFragment(t *testing.T) {
	s := &chain.Statement{
		SQLID: "12",
		Table: "product",
		Kind:  chain.KindUpdate,
		Parameters: chain.NewFields().
			Set("last_date", time.Date(2020, 10, 11, 0, 0, 0, 0, time.UTC)).
			Set("count", []any{"count + 1"}),
		Where: chain.And(
			chain.Value{Field: "id", Op: "=", Val: int64(123)},
			chain.Value{Field: "type", Op: "!=", Val: "x"},
		),
	}

	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	golden(t).Assert(t, "update_raw_fragment", []byte(r.SQL))
}

func TestStatement_BackReferenceArithmetic(t *testing.T) {
	prior := &chain.Statement{
		SQLID:    "11",
		Table:    "order",
		Kind:     chain.KindInsert,
		LastID:   int64(101),
		Executed: true,
	}
	s := &chain.Statement{
		SQLID: "13",
		Table: "order_ref",
		Kind:  chain.KindInsert,
		Parameters: chain.NewFields().
			Set("order", "#order:11#").
			Set("next_order", []any{"#order:11# + 10"}).
			Set("ref", int64(1002)),
		ReturnColumns: chain.NewFields().Set("next_order", nil),
		ReturnLastID:  true,
	}

	r, err := Statement(s, dialect.Generic, []*chain.Statement{prior})
	require.NoError(t, err)
	golden(t).Assert(t, "insert_backref_arithmetic", []byte(r.SQL))

	assert.Equal(t, int64(101), r.Named["order"])
	assert.Equal(t, []any{"101 + 10"}, r.Named["next_order"])
}

func TestStatement_BytesGenericDialect(t *testing.T) {
	s := &chain.Statement{
		SQLID:      "14",
		Table:      "order_ref",
		Kind:       chain.KindUpdate,
		Parameters: chain.NewFields().Set("payload", []byte{1, 2, 3, 4}),
		Where:      chain.Value{Field: "ref", Op: "=", Val: int64(1002)},
	}

	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	golden(t).Assert(t, "update_bytes", []byte(r.SQL))
}

func TestStatement_DeleteWithResolvedVariable(t *testing.T) {
	s := &chain.Statement{
		SQLID:     "14",
		Table:     "tab_use",
		Kind:      chain.KindDelete,
		Where:     chain.Value{Field: "num", Op: "=", Val: "%TAB_NUMBER%"},
		Variables: chain.NewFields().Set("TAB_NUMBER", int64(301)),
	}

	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	golden(t).Assert(t, "delete_where", []byte(r.SQL))
}

func TestStatement_RenderingIsPure(t *testing.T) {
	s := variableSelectUser()
	first, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	second, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	assert.Equal(t, first.SQL, second.SQL)
}

func TestStatement_SelectDefaults(t *testing.T) {
	s := &chain.Statement{SQLID: "s", Table: "audit", Kind: chain.KindSelect}
	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `audit`", r.SQL)
}

func TestStatement_OrderByVariants(t *testing.T) {
	cases := []struct {
		orderBy string
		want    string
	}{
		{">created", "SELECT * FROM `audit` ORDER BY `created` DESC"},
		{"<created", "SELECT * FROM `audit` ORDER BY `created`"},
		{"created", "SELECT * FROM `audit` ORDER BY `created`"},
		{"", "SELECT * FROM `audit`"},
	}
	for _, tc := range cases {
		s := &chain.Statement{SQLID: "s", Table: "audit", Kind: chain.KindSelect, OrderBy: tc.orderBy}
		r, err := Statement(s, dialect.Generic, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, r.SQL)
	}
}

func TestStatement_LimitOnlyWhenPositive(t *testing.T) {
	s := &chain.Statement{SQLID: "s", Table: "audit", Kind: chain.KindSelect, Limit: -5}
	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `audit`", r.SQL)
}

func TestStatement_DeleteWithoutWhere(t *testing.T) {
	// Permitted: SELECT and DELETE may omit WHERE.
	s := &chain.Statement{SQLID: "d", Table: "tab_use", Kind: chain.KindDelete, Limit: 10}
	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `tab_use` LIMIT 10", r.SQL)
}

func TestStatement_PostgresDialect(t *testing.T) {
	s := &chain.Statement{
		SQLID:      "b",
		Table:      "blob_store",
		Kind:       chain.KindInsert,
		Parameters: chain.NewFields().Set("payload", []byte{0xde, 0xad}),
	}
	r, err := Statement(s, dialect.Postgres, nil)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "blob_store" ("payload") VALUES ('\xdead')`, r.SQL)
}

func TestStatement_MySQLDialectBytes(t *testing.T) {
	s := &chain.Statement{
		SQLID:      "b",
		Table:      "blob_store",
		Kind:       chain.KindInsert,
		Parameters: chain.NewFields().Set("payload", []byte{0xde, 0xad}),
	}
	r, err := Statement(s, dialect.MySQL, nil)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `blob_store` (`payload`) VALUES (X'dead')", r.SQL)
}

func TestStatement_BuildErrors(t *testing.T) {
	insert := &chain.Statement{SQLID: "i", Table: "t", Kind: chain.KindInsert}
	_, err := Statement(insert, dialect.Generic, nil)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "i", be.SQLID)

	update := &chain.Statement{SQLID: "u", Table: "t", Kind: chain.KindUpdate,
		Parameters: chain.NewFields().Set("a", int64(1))}
	_, err = Statement(update, dialect.Generic, nil)
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Reason, "WHERE")

	unknown := &chain.Statement{SQLID: "x", Table: "t", Kind: chain.Kind("MERGE")}
	_, err = Statement(unknown, dialect.Generic, nil)
	require.ErrorAs(t, err, &be)
}

func TestStatement_UpdateEmptyGroupWhereFails(t *testing.T) {
	s := &chain.Statement{
		SQLID:      "u",
		Table:      "t",
		Kind:       chain.KindUpdate,
		Parameters: chain.NewFields().Set("a", int64(1)),
		Where:      chain.Group{},
	}
	_, err := Statement(s, dialect.Generic, nil)
	var be *BuildError
	require.ErrorAs(t, err, &be)
}

func TestStatement_NullParameterRendersNULL(t *testing.T) {
	s := &chain.Statement{
		SQLID:      "i",
		Table:      "t",
		Kind:       chain.KindInsert,
		Parameters: chain.NewFields().Set("gone", nil).Set("user", "%NEVER%"),
	}
	r, err := Statement(s, dialect.Generic, nil)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `t` (`gone` , `user`) VALUES (NULL , NULL)", r.SQL)
}
