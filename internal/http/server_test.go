package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/storage/memory"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError, Format: "text", Output: io.Discard})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := services.NewExpenseService(memory.New(), nil).WithLogger(quietLogger())
	srv := NewServer(":0", svc, quietLogger())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, srv, http.MethodPost, "/api/expenses", "application/json", body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get(applog.RequestIDHeader))
}

func TestCreateAndGetExpense(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, `{"expense_date":"2024-03-01","amount":"12,50","category":"Food","description":"lunch"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/expenses/1", rec.Header().Get("Location"))

	created := decode[core.Expense](t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, core.NewDate(2024, 3, 1), created.Date)
	assert.True(t, created.Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "lunch", created.Description)
	assert.False(t, created.CreatedAt.IsZero())

	rec = do(t, srv, http.MethodGet, "/api/expenses/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[core.Expense](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Food", got.Category)
}

func TestCreateExpenseAcceptsFormAndNumericAmount(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/expenses", "application/x-www-form-urlencoded",
		"date=2024-03-02&amount=3&category=Care")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = postJSON(t, srv, `{"date":"2024-03-03","amount":7.25,"category":"Other"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e := decode[core.Expense](t, rec)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("7.25")))

	rec = do(t, srv, http.MethodGet, "/api/expenses", "", "")
	list := decode[[]core.Expense](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, core.NewDate(2024, 3, 3), list[0].Date)
}

func TestCreateExpenseValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero amount", `{"expense_date":"2024-03-01","amount":"0","category":"Food"}`, "amount"},
		{"negative amount", `{"expense_date":"2024-03-01","amount":"-3","category":"Food"}`, "amount"},
		{"bad date", `{"expense_date":"01/03/2024","amount":"3","category":"Food"}`, "date"},
		{"date with trailing garbage", `{"expense_date":"2024-01-15garbage","amount":"3","category":"Food"}`, "date"},
		{"date with extra digits", `{"expense_date":"2024-01-1599","amount":"3","category":"Food"}`, "date"},
		{"year typo", `{"expense_date":"0202-03-01","amount":"3","category":"Food"}`, "date"},
		{"amount too large", `{"expense_date":"2024-03-01","amount":"12345678901234567.89","category":"Food"}`, "amount"},
		{"missing category", `{"expense_date":"2024-03-01","amount":"3"}`, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			rec := postJSON(t, srv, tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.field, body.Field)
			assert.NotEmpty(t, body.Error)

			list := decode[[]core.Expense](t, do(t, srv, http.MethodGet, "/api/expenses", "", ""))
			assert.Empty(t, list)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv, `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, srv, `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidAndMissingIDs(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/expenses/abc", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/expenses/0", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/expenses/42", "", "").Code)

	rec := do(t, srv, http.MethodPut, "/api/expenses/42", "application/json",
		`{"expense_date":"2024-03-01","amount":"1","category":"Food"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "expense 42 not found", decode[errorBody](t, rec).Error)
}

func TestUpdateExpense(t *testing.T) {
	srv := newTestServer(t)
	created := decode[core.Expense](t, postJSON(t, srv, `{"expense_date":"2024-03-01","amount":"5","category":"Food"}`))

	rec := do(t, srv, http.MethodPut, "/api/expenses/1", "application/json",
		`{"expense_date":"2024-03-04","amount":"9.99","category":"Shopping","description":"socks"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[core.Expense](t, rec)
	assert.Equal(t, core.NewDate(2024, 3, 4), updated.Date)
	assert.Equal(t, "Shopping", updated.Category)
	assert.True(t, updated.Amount.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	rec = do(t, srv, http.MethodPut, "/api/expenses/1", "application/json",
		`{"expense_date":"2024-03-04","amount":"0","category":"Shopping"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeleteExpense(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv, `{"expense_date":"2024-03-01","amount":"5","category":"Food"}`)

	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/expenses/1", "", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/expenses/1", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/expenses/1", "", "").Code)
}

func TestClearExpensesRequiresConfirmation(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv, `{"expense_date":"2024-03-01","amount":"5","category":"Food"}`)

	rec := do(t, srv, http.MethodDelete, "/api/expenses", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode[[]core.Expense](t, do(t, srv, http.MethodGet, "/api/expenses", "", "")), 1)

	rec = do(t, srv, http.MethodDelete, "/api/expenses?confirm=true", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/expenses", "", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	created := decode[core.Expense](t, postJSON(t, srv, `{"expense_date":"2024-03-01","amount":"5","category":"Food"}`))
	assert.Equal(t, int64(1), created.ID)
}

func TestSummaryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv, `{"expense_date":"2024-03-01","amount":"10","category":"Food"}`)
	postJSON(t, srv, `{"expense_date":"2024-03-03","amount":"2.50","category":"Care"}`)
	postJSON(t, srv, `{"expense_date":"2024-03-03","amount":"1.25","category":"Food"}`)

	sum := decode[core.Summary](t, do(t, srv, http.MethodGet, "/api/summary", "", ""))
	assert.Equal(t, 3, sum.Count)
	assert.True(t, sum.Total.Equal(decimal.RequireFromString("13.75")))

	cats := decode[[]core.CategoryAmount](t, do(t, srv, http.MethodGet, "/api/summary/categories", "", ""))
	require.Len(t, cats, 2)
	amounts := map[string]decimal.Decimal{}
	for _, c := range cats {
		amounts[c.Name] = c.Amount
	}
	assert.True(t, amounts["Food"].Equal(decimal.RequireFromString("11.25")))
	assert.True(t, amounts["Care"].Equal(decimal.RequireFromString("2.5")))

	daily := decode[[]core.DailyAmount](t, do(t, srv, http.MethodGet, "/api/summary/daily", "", ""))
	require.Len(t, daily, 3)
	assert.Equal(t, core.NewDate(2024, 3, 1), daily[0].Date)
	assert.True(t, daily[1].Amount.IsZero())
	assert.True(t, daily[2].Amount.Equal(decimal.RequireFromString("3.75")))
}

func TestCategoriesIncludeCustomLabels(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv, `{"expense_date":"2024-03-01","amount":"10","category":"Books"}`)
	postJSON(t, srv, `{"expense_date":"2024-03-01","amount":"10","category":"Food"}`)

	got := decode[map[string][]string](t, do(t, srv, http.MethodGet, "/api/categories", "", ""))

	want := append(append([]string{}, core.DefaultCategories...), "Books")
	assert.Equal(t, want, got["categories"])
}

type brokenService struct {
	ExpenseService
}

func (brokenService) ListExpenses(context.Context) ([]core.Expense, error) {
	return nil, &core.StorageError{Op: "get all", Err: errors.New("disk I/O error")}
}

func TestStorageFailureIsGeneric(t *testing.T) {
	srv := NewServer(":0", brokenService{}, quietLogger())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	rec := do(t, srv, http.MethodGet, "/api/expenses", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, core.GenericFailureMessage, decode[errorBody](t, rec).Error)
	assert.NotContains(t, rec.Body.String(), "disk")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/nope", "", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodPatch, "/api/expenses/1", "", "").Code)
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv := NewServer(":0", brokenService{}, quietLogger())

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))
}
