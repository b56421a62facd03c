package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/export"
)

type testCLI struct {
	dir string
	db  string
}

// newTestCLI runs commands in an empty working directory against a file
// database, so state carries over between invocations.
func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	c := &testCLI{dir: dir, db: filepath.Join(dir, "data", "ledger.db")}
	c.ok(t, "init", "--name", "Alice")
	return c
}

func (c *testCLI) run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--db", c.db, "--owner", "alice", "--plain"}, args...)
	code = Execute(context.Background(), full, &out, &errOut)
	return out.String(), errOut.String(), code
}

func (c *testCLI) ok(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := c.run(t, args...)
	require.Equal(t, ExitOK, code, "ledger %s: %s", strings.Join(args, " "), errOut)
	return out
}

func TestInit_Idempotent(t *testing.T) {
	c := newTestCLI(t)
	assert.FileExists(t, c.db)
	assert.Contains(t, c.ok(t, "init"), "already exists")
}

func TestCategoryAndItemFlow(t *testing.T) {
	c := newTestCLI(t)

	assert.Contains(t, c.ok(t, "category", "add", "asset", "Bank"), `added category "Bank"`)
	assert.Contains(t, c.ok(t, "category", "add", "asset", "bank"), "already exists")

	assert.Contains(t, c.ok(t, "item", "add", "asset", "Checking", "100", "-c", "bank"), "at tick 1")
	assert.Contains(t, c.ok(t, "item", "update", "asset", "checking", "--amount", "150"), "at tick 3")

	out := c.ok(t, "item", "list", "asset")
	assert.Contains(t, out, "| **Bank** | Checking | $150.00 |")

	out = c.ok(t, "item", "list", "asset", "--at", "1")
	assert.Contains(t, out, "$100.00")
	assert.NotContains(t, out, "$150.00")

	c.ok(t, "category", "rename", "asset", "bank", "Banks")
	out = c.ok(t, "category", "list", "asset")
	assert.Contains(t, out, "| 2 | Banks | bank |")
	assert.Contains(t, c.ok(t, "category", "add", "asset", "Bank"),
		`category "Banks" already exists in asset: "Bank" is its original name`)

	out = c.ok(t, "item", "history", "asset")
	assert.Contains(t, out, "| 1 | Checking | Bank | $100.00 | 1 | 2 |")
	assert.Contains(t, out, "| 1 | Checking | Bank | $150.00 | 3 |  |")

	c.ok(t, "item", "delete", "asset", "Checking")
	_, errOut, code := c.run(t, "item", "delete", "asset", "Checking")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "not found")
}

func TestValidationErrors(t *testing.T) {
	c := newTestCLI(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative amount", []string{"item", "add", "asset", "Car", "-5"}, "error:"},
		{"amount not a number", []string{"item", "add", "asset", "Car", "lots"}, `"lots" is not a number`},
		{"unknown section", []string{"item", "list", "equity"}, "unknown section"},
		{"update with nothing", []string{"item", "update", "asset", "Car"}, "nothing to change"},
		{"compare without snapshots", []string{"compare", "--select", "1"}, "no valid snapshot numbers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := c.run(t, tt.args...)
			assert.Equal(t, ExitFailure, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestMissingOwner(t *testing.T) {
	t.Chdir(t.TempDir())
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), []string{"--db", "x.db", "view"}, &out, &errOut)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut.String(), "no owner set")
}

func TestSnapshotsAndCompare(t *testing.T) {
	c := newTestCLI(t)

	c.ok(t, "item", "add", "asset", "Checking", "100")
	c.ok(t, "item", "add", "liability", "Card", "40")
	assert.Contains(t, c.ok(t, "snapshot", "create", "-m", "start"), "$60.00")

	c.ok(t, "item", "update", "asset", "Checking", "--amount", "300")
	c.ok(t, "item", "add", "asset", "Savings", "50")
	c.ok(t, "snapshot", "create")

	out := c.ok(t, "snapshot", "list")
	assert.Contains(t, out, "$60.00 | start |")
	assert.Contains(t, out, "| 2 |")

	out = c.ok(t, "snapshot", "view", "1")
	assert.Contains(t, out, "**Net: $60.00**")
	assert.Contains(t, out, "Recorded net worth: $60.00")

	csvPath := filepath.Join(c.dir, "cmp.csv")
	stdout, stderr, code := c.run(t, "compare", "--select", "2 1 7", "--csv", csvPath)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stderr, "warning: 7 was skipped")
	assert.Contains(t, stdout, "| Savings | Uncategorized | - | $50.00 |")
	assert.Contains(t, stdout, "| **Net** |  | **$60.00** | **$310.00** |")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "section,item,category,origin_at,snapshot,date,tick,amount"))

	out = c.ok(t, "snapshot", "trend")
	assert.Contains(t, out, "+$250.00")

	c.ok(t, "snapshot", "delete", "1")
	out = c.ok(t, "snapshot", "deleted")
	assert.Contains(t, out, "| 1 |")
	assert.Contains(t, c.ok(t, "snapshot", "restore", "1"), "restored snapshot")

	_, errOut, code := c.run(t, "snapshot", "restore", "1")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "already exists")
}

func TestExport(t *testing.T) {
	c := newTestCLI(t)
	c.ok(t, "item", "add", "asset", "Checking", "100")
	c.ok(t, "snapshot", "create")

	out := c.ok(t, "export", "view")
	var doc export.ViewDocument
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 100.0, doc.Net)
	assert.Nil(t, doc.Snapshot)

	out = c.ok(t, "export", "view", "--snapshot", "1")
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.NotNil(t, doc.Snapshot)
	assert.Equal(t, 100.0, doc.Snapshot.NetWorth)

	path := filepath.Join(c.dir, "history.csv")
	c.ok(t, "export", "history", "asset", "-o", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Checking,100,Uncategorized,asset,1,1,")

	assert.Contains(t, c.ok(t, "export", "trend"), "tick,date,net_worth,day_offset")
}

func TestToken(t *testing.T) {
	c := newTestCLI(t)

	_, errOut, code := c.run(t, "token")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "secret")

	t.Setenv("LEDGER_AUTH_SECRET", "0123456789abcdef0123")
	out := c.ok(t, "token", "--ttl", "1h")
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(apperror.NotFound("item", "car")))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("unknown flag")))
	assert.Equal(t, ExitStorage, ExitCode(apperror.Storage("advancing clock", errors.New("disk full"))))
}
