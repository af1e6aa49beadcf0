package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/config"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/storage/memory"
)

// isolateEnv blanks every setting that could leak in from the host.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.KeyConfigFile,
		config.KeyPort,
		config.KeyDataBackend,
		config.KeySQLiteDBPath,
		config.KeyDatabaseURL,
		config.KeyLogLevel,
		config.KeyLogFormat,
		config.KeyAMQPURL,
		config.KeyGoogleSpreadsheetID,
	} {
		t.Setenv(key, "")
	}
}

type harness struct {
	t      *testing.T
	db     string
	stderr string
}

func newHarness(t *testing.T) *harness {
	isolateEnv(t)
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &harness{t: t, db: filepath.Join(t.TempDir(), "expenses.db")}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--backend", "sqlite", "--db", h.db, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	h.stderr = errOut.String()
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "spese %s", strings.Join(args, " "))
	return out
}

type exported struct {
	ID          int64  `json:"id"`
	Date        string `json:"expense_date"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (h *harness) listJSON() []exported {
	h.t.Helper()
	var out []exported
	require.NoError(h.t, json.Unmarshal([]byte(h.mustRun("list", "--format", "json")), &out))
	return out
}

func TestAddAndList(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.mustRun("list"), "No expenses recorded.")

	out := h.mustRun("add", "--date", "2024-03-01", "--amount", "12,5", "--category", "Food", "--description", "lunch")
	assert.Equal(t, "Added expense #1: 2024-03-01 12.50 Food\n", out)

	h.mustRun("add", "--date", "2024-03-05", "--amount", "3", "--category", "Care")

	table := h.mustRun("list")
	lines := strings.Split(strings.TrimSpace(table), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "DESCRIPTION")
	assert.Contains(t, lines[1], "2024-03-05")
	assert.Contains(t, lines[2], "lunch")
}

func TestAddDefaultsToToday(t *testing.T) {
	h := newHarness(t)

	h.mustRun("add", "--amount", "1", "--category", "Other")

	list := h.listJSON()
	require.Len(t, list, 1)
	assert.Equal(t, time.Now().Format("2006-01-02"), list[0].Date)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("add", "--date", "2024-03-01", "--amount", "0", "--category", "Food")
	require.Error(t, err)
	assert.Equal(t, "amount must be greater than zero", err.Error())

	_, err = h.run("add", "--date", "2024-13-01", "--amount", "2", "--category", "Food")
	require.Error(t, err)

	_, err = h.run("add", "--date", "2024-03-01", "--amount", "2", "--category", "  ")
	require.Error(t, err)
	assert.Equal(t, "category is required", err.Error())

	_, err = h.run("add", "--amount", "2")
	require.Error(t, err)

	assert.Empty(t, h.listJSON())
}

func TestUpdateChangesOnlyGivenFlags(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "--date", "2024-03-01", "--amount", "5", "--category", "Food", "--description", "bread")

	out := h.mustRun("update", "1", "--amount", "7.25")
	assert.Equal(t, "Updated expense #1: 2024-03-01 7.25 Food\n", out)

	list := h.listJSON()
	require.Len(t, list, 1)
	assert.Equal(t, "7.25", list[0].Amount)
	assert.Equal(t, "bread", list[0].Description)
	assert.Equal(t, "2024-03-01", list[0].Date)

	h.mustRun("update", "1", "--category", "Shopping", "--description", "")
	list = h.listJSON()
	assert.Equal(t, "Shopping", list[0].Category)
	assert.Empty(t, list[0].Description)
}

func TestUpdateMissingExpense(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("update", "9", "--amount", "1")
	require.Error(t, err)
	assert.Equal(t, "expense 9 not found", err.Error())

	_, err = h.run("update", "x", "--amount", "1")
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "--date", "2024-03-01", "--amount", "5", "--category", "Food")
	h.mustRun("add", "--date", "2024-03-02", "--amount", "6", "--category", "Food")

	assert.Equal(t, "Deleted expense #1\n", h.mustRun("delete", "1"))
	h.mustRun("delete", "1")

	list := h.listJSON()
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)

	h.mustRun("add", "--date", "2024-03-03", "--amount", "1", "--category", "Food")
	list = h.listJSON()
	assert.Equal(t, int64(3), list[0].ID)
}

func TestClearRequiresYes(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "--date", "2024-03-01", "--amount", "5", "--category", "Food")
	h.mustRun("add", "--date", "2024-03-02", "--amount", "5", "--category", "Food")

	_, err := h.run("clear")
	assert.ErrorIs(t, err, errClearNotConfirmed)
	assert.Len(t, h.listJSON(), 2)

	h.mustRun("clear", "--yes")
	assert.Empty(t, h.listJSON())

	assert.Contains(t, h.mustRun("add", "--date", "2024-03-03", "--amount", "1", "--category", "Food"), "#1:")
}

func TestSummary(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "--date", "2024-03-01", "--amount", "10", "--category", "Food")
	h.mustRun("add", "--date", "2024-03-03", "--amount", "2.50", "--category", "Care")
	h.mustRun("add", "--date", "2024-03-03", "--amount", "1.25", "--category", "Food")

	out := h.mustRun("summary")
	assert.Contains(t, out, "Total spent: 13.75")
	assert.Contains(t, out, "Expenses:    3")
	assert.Contains(t, out, "2024-03-02")

	var doc struct {
		Total string `json:"total"`
		Count int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("summary", "--format", "json")), &doc))
	assert.Equal(t, "13.75", doc.Total)
	assert.Equal(t, 3, doc.Count)

	csvOut := h.mustRun("summary", "--format", "csv")
	assert.Contains(t, csvOut, "Food,11.25")

	_, err := h.run("summary", "--format", "xml")
	assert.Error(t, err)
}

func TestSummaryEmpty(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("summary")

	assert.Equal(t, "Total spent: 0.00\nExpenses:    0\n", out)
}

func TestExportToFile(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "--date", "2024-03-01", "--amount", "10", "--category", "Food", "--description", "pizza, large")

	dest := filepath.Join(t.TempDir(), "out.csv")
	out := h.mustRun("export", "--format", "csv", "--output", dest)
	assert.Equal(t, "Exported 1 expenses to "+dest+"\n", out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,expense_date,amount,category,description,created_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `1,2024-03-01,10.00,Food,"pizza, large",`))

	yamlOut := h.mustRun("export", "-f", "yaml")
	assert.Contains(t, yamlOut, "category: Food")
}

func TestMigrate(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "Schema is up to date (sqlite)\n", h.mustRun("migrate"))
	assert.Equal(t, "Schema is up to date (sqlite)\n", h.mustRun("migrate"))

	_, err := os.Stat(h.db)
	assert.NoError(t, err)
}

func TestInvalidConfiguration(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("--backend", "mongo", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data backend 'mongo'")
}

func TestLogLevelAppliesToStorageLogs(t *testing.T) {
	h := newHarness(t)

	h.mustRun("add", "--date", "2024-03-01", "--amount", "1", "--category", "Food")
	assert.Empty(t, h.stderr)

	h.mustRun("--log-level", "info", "add", "--date", "2024-03-01", "--amount", "2", "--category", "Food")
	assert.Contains(t, h.stderr, "Expense saved")
	assert.Contains(t, h.stderr, "component=storage")
}

func TestLogFormatAppliesToStorageLogs(t *testing.T) {
	h := newHarness(t)
	t.Setenv(config.KeyLogFormat, "json")

	h.mustRun("--log-level", "info", "add", "--date", "2024-03-01", "--amount", "1", "--category", "Food")

	assert.Contains(t, h.stderr, `"msg":"Expense saved"`)
	assert.Contains(t, h.stderr, `"component":"storage"`)
}

func TestServeRejectsInvalidPort(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("serve", "--port", "abc")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port 'abc'")
}

func TestRunServerStopsOnCancel(t *testing.T) {
	svc := services.NewExpenseService(memory.New(), nil)
	logger := newQuietLogger()
	srv := apphttp.NewServer("127.0.0.1:0", svc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv, logger) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func newQuietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}
