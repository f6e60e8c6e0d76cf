package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes policyctl against dbPath and returns stdout.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append([]string{"--dsn", dbPath}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "policy.db")
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "policyctl", cmd.Use)
	assert.Contains(t, cmd.Long, "casbinsql")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"init", "list", "add", "remove", "import", "export", "enforce"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "driver", "dsn", "table"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := runCLI(t, tempDB(t), "--format", "yaml", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInit(t *testing.T) {
	dbPath := tempDB(t)

	out, err := runCLI(t, dbPath, "init", "--table", "authz_rules")
	require.NoError(t, err)
	assert.Contains(t, out, "Policy table authz_rules ready (sqlite3, sqlite)")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestInit_InvalidTable(t *testing.T) {
	out, err := runCLI(t, tempDB(t), "init", "--table", "bad-name")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, ExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestAddListRemove(t *testing.T) {
	dbPath := tempDB(t)

	_, err := runCLI(t, dbPath, "add", "p", "alice", "data1", "read")
	require.NoError(t, err)
	_, err = runCLI(t, dbPath, "add", "p", "bob", "data2", "write")
	require.NoError(t, err)
	_, err = runCLI(t, dbPath, "add", "g", "alice", "admin")
	require.NoError(t, err)

	out, err := runCLI(t, dbPath, "list")
	require.NoError(t, err)
	assert.Equal(t, "p, alice, data1, read\np, bob, data2, write\ng, alice, admin\n", out)

	out, err = runCLI(t, dbPath, "list", "--filter", "ptype = 'g'")
	require.NoError(t, err)
	assert.Equal(t, "g, alice, admin\n", out)

	_, err = runCLI(t, dbPath, "remove", "p", "--field-index", "1", "data2")
	require.NoError(t, err)
	_, err = runCLI(t, dbPath, "remove", "g", "alice", "admin")
	require.NoError(t, err)

	out, err = runCLI(t, dbPath, "list", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, [][]string{{"p", "alice", "data1", "read"}}, resp.Data.Rules)
}

func TestList_Empty(t *testing.T) {
	out, err := runCLI(t, tempDB(t), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No rules found.")
}

func TestList_UnsupportedFilter(t *testing.T) {
	out, err := runCLI(t, tempDB(t), "--format", "json", "list", "--filter", "v9=alice")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "UNSUPPORTED_FILTER", resp.Error.Code)
}

func TestAdd_TooManyFields(t *testing.T) {
	_, err := runCLI(t, tempDB(t), "add", "p", "a", "b", "c", "d", "e", "f", "g")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts between 2 and 7 arg(s)")
}

func TestImportExport(t *testing.T) {
	dbPath := tempDB(t)
	csvPath := filepath.Join(t.TempDir(), "policy.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(`# sample policy
p, alice, data1, read
p, bob, data2, write
g, alice, data2_admin
p, "carol, jr", data3, read
`), 0o644))

	out, err := runCLI(t, dbPath, "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 4 rules")

	out, err = runCLI(t, dbPath, "export")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"p,alice,data1,read",
		"p,bob,data2,write",
		`p,"carol, jr",data3,read`,
		"g,alice,data2_admin",
		"",
	}, "\n"), out)

	exportPath := filepath.Join(t.TempDir(), "out.csv")
	out, err = runCLI(t, dbPath, "export", "--output", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 4 rules")

	// Exported files import cleanly into another database.
	other := tempDB(t)
	_, err = runCLI(t, other, "import", exportPath)
	require.NoError(t, err)
	out, err = runCLI(t, other, "list", "--filter", "v1=data3")
	require.NoError(t, err)
	assert.Equal(t, "p, carol, jr, data3, read\n", out)
}

func TestImport_BadFile(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "policy.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("p, a, b, c, d, e, f, g\n"), 0o644))

	out, err := runCLI(t, tempDB(t), "import", csvPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, ExitCode(err))
	assert.Contains(t, out, "Error [E004]")

	_, err = runCLI(t, tempDB(t), "import", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

func TestEnforce(t *testing.T) {
	dbPath := tempDB(t)
	modelPath := filepath.Join(t.TempDir(), "rbac_model.conf")
	require.NoError(t, os.WriteFile(modelPath, []byte(rbacModel), 0o644))

	_, err := runCLI(t, dbPath, "add", "p", "data2_admin", "data2", "read")
	require.NoError(t, err)
	_, err = runCLI(t, dbPath, "add", "g", "alice", "data2_admin")
	require.NoError(t, err)

	out, err := runCLI(t, dbPath, "enforce", "--model", modelPath, "alice", "data2", "read")
	require.NoError(t, err)
	assert.Contains(t, out, "allow")

	out, err = runCLI(t, dbPath, "enforce", "--model", modelPath, "bob", "data2", "read")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, out, "deny")
}

func TestEnforce_NoModel(t *testing.T) {
	out, err := runCLI(t, tempDB(t), "enforce", "alice", "data1", "read")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, ExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
