package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_RejectsInvalidFormat(t *testing.T) {
	_, err := runCLI(t, "--format", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestVersion_Text(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "relay ")
}

func TestVersion_JSON(t *testing.T) {
	out, err := runCLI(t, "--format", "json", "version")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidate_GoodDocument(t *testing.T) {
	path := writeDoc(t, goodChainDoc)
	out, err := runCLI(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
}

func TestValidate_BadDocument(t *testing.T) {
	path := writeDoc(t, `{"sqls": [{"sqlID": "1", "table": "t", "type": "INSERT"}]}`)
	out, err := runCLI(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "error")
}

func TestValidate_JSONReport(t *testing.T) {
	path := writeDoc(t, goodChainDoc)
	out, err := runCLI(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRender_Text(t *testing.T) {
	path := writeDoc(t, goodChainDoc)
	out, err := runCLI(t, "render", path, "--set", "SYS_USER=u10")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT `user_id` as `id` FROM `user` WHERE `id` > 0 ORDER BY `user_id` DESC LIMIT 1")
	assert.Contains(t, out, "INSERT INTO `order` (`title` , `user`) VALUES ('Water' , 'u10')")
	assert.Contains(t, out, "(variable)")
}

func TestRender_SoftwareOverride(t *testing.T) {
	path := writeDoc(t, goodChainDoc)
	out, err := runCLI(t, "render", path, "--software", "postgres", "--set", "SYS_USER=u10")
	require.NoError(t, err)
	assert.Contains(t, out, `INSERT INTO "order" ("title" , "user") VALUES ('Water' , 'u10')`)
}

func TestRender_PropertiesBindVariables(t *testing.T) {
	doc := `{
		"software": "mysql",
		"properties": {"SYS_USER": "prop-user"},
		"sqls": [{
			"sqlID": "11", "table": "order", "type": "INSERT",
			"parameters": {"user": "%SYS_USER%"}
		}]
	}`
	path := writeDoc(t, doc)
	out, err := runCLI(t, "render", path)
	require.NoError(t, err)
	assert.Contains(t, out, "VALUES ('prop-user')")
}

func TestRender_MissingFile(t *testing.T) {
	_, err := runCLI(t, "render", "/does/not/exist.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_MissingFile(t *testing.T) {
	_, err := runCLI(t, "run", "/does/not/exist.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
