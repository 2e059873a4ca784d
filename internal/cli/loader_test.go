package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodChainDoc = `{
	"id": "basic",
	"host": "localhost",
	"port": 3306,
	"user": "app", "pass": "pw", "db": "shop",
	"software": "mysql",
	"properties": {"REGION": "eu"},
	"sqls": [
		{
			"sqlID": "%SYS_USER%",
			"table": "user",
			"type": "SELECT",
			"where": ["id", ">", 0],
			"returnColumns": {"user_id": "id"},
			"orderBy": ">user_id",
			"limit": 1
		},
		{
			"sqlID": "11",
			"table": "order",
			"type": "INSERT",
			"parameters": {"title": "Water", "user": "%SYS_USER%"}
		}
	]
}`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chain.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCommand_Good(t *testing.T) {
	cmd, errs := LoadCommand(writeDoc(t, goodChainDoc), LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, cmd)
	assert.Equal(t, "basic", cmd.ID)
	assert.Len(t, cmd.Statements, 2)
}

func TestLoadCommand_NotFound(t *testing.T) {
	_, errs := LoadCommand(filepath.Join(t.TempDir(), "nope.json"), LoadModeFailFast)
	require.Len(t, errs, 1)
	le := errs[0].(*LoadError)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoadCommand_BadJSON(t *testing.T) {
	_, errs := LoadCommand(writeDoc(t, "{not json"), LoadModeFailFast)
	require.NotEmpty(t, errs)
	le := errs[0].(*LoadError)
	assert.Equal(t, ErrCodeParse, le.Code)
}

func TestLoadCommand_SchemaViolation(t *testing.T) {
	doc := `{"sqls": [{"sqlID": "x", "table": "t", "type": "TRUNCATE"}]}`
	_, errs := LoadCommand(writeDoc(t, doc), LoadModeFailFast)
	require.NotEmpty(t, errs)
	le := errs[0].(*LoadError)
	assert.Equal(t, ErrCodeSchema, le.Code)
}

func TestLoadCommand_StructuralErrorsCollected(t *testing.T) {
	doc := `{"sqls": [
		{"sqlID": "1", "table": "t", "type": "INSERT"},
		{"sqlID": "2", "table": "t", "type": "UPDATE"}
	]}`
	cmd, errs := LoadCommand(writeDoc(t, doc), LoadModeCollectAll)
	require.NotNil(t, cmd)
	// INSERT without parameters, UPDATE without parameters and predicate.
	assert.Len(t, errs, 3)
	for _, err := range errs {
		assert.Equal(t, ErrCodeStructural, err.(*LoadError).Code)
	}
}

func TestLoadCommand_FailFastStopsEarly(t *testing.T) {
	doc := `{"sqls": [
		{"sqlID": "1", "table": "t", "type": "INSERT"},
		{"sqlID": "2", "table": "t", "type": "UPDATE"}
	]}`
	_, errs := LoadCommand(writeDoc(t, doc), LoadModeFailFast)
	assert.Len(t, errs, 1)
}
