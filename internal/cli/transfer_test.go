package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPolicyCSV_GroupsByPType(t *testing.T) {
	order, groups, err := readPolicyCSV(strings.NewReader(`
g, alice, admin
p, alice, data1, read
# comment
p,bob,data2,write
g2, data1, group1
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"g", "p", "g2"}, order)
	assert.Equal(t, [][]string{{"alice", "data1", "read"}, {"bob", "data2", "write"}}, groups["p"])
	assert.Equal(t, [][]string{{"alice", "admin"}}, groups["g"])
	assert.Equal(t, [][]string{{"data1", "group1"}}, groups["g2"])
}

func TestReadPolicyCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"missing ptype": ", alice, data1\n",
		"no fields":     "p\n",
		"too many":      "p, 1, 2, 3, 4, 5, 6, 7\n",
		"bad quoting":   "p, \"alice, data1\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := readPolicyCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestReadPolicyCSV_ReportsLine(t *testing.T) {
	_, _, err := readPolicyCSV(strings.NewReader("p, alice, data1, read\np\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestResolveConfig_FlagsWin(t *testing.T) {
	t.Setenv("CASBINSQL_DATABASE_TABLE", "from_env")

	cfg, err := resolveConfig(&RootOptions{})
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Database.Table)

	cfg, err = resolveConfig(&RootOptions{Driver: "pgx", DSN: "postgres://localhost/authz", Table: "from_flag"})
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, "postgres", cfg.Database.Dialect)
	assert.Equal(t, "from_flag", cfg.Database.Table)
}

func TestSectionOf(t *testing.T) {
	assert.Equal(t, "p", sectionOf("p"))
	assert.Equal(t, "p", sectionOf("p2"))
	assert.Equal(t, "g", sectionOf("g3"))
}
