package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fintrack/internal/clock"
	"github.com/aristath/fintrack/internal/modules/expenses"
	testingpkg "github.com/aristath/fintrack/internal/testing"
)

func setupRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	db := testingpkg.NewTestDB(t, "fintrack")
	clk := clock.NewFake(time.Date(2026, time.October, 18, 12, 0, 0, 0, time.Local))
	svc := expenses.NewService(expenses.NewRepository(db.Conn(), logger), clk, logger)

	r := chi.NewRouter()
	NewHandler(svc, logger).RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, body map[string]interface{}) {
	t.Helper()
	b, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/expenses", bytes.NewReader(b)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestExpenseEndpoints(t *testing.T) {
	r := setupRouter(t)

	post(t, r, map[string]interface{}{"description": "Groceries", "amount": "250.50", "date": "2026-10-02",
		"category": "Food", "paymentMethod": "UPI"})
	post(t, r, map[string]interface{}{"description": "Metro", "amount": "100", "category": "Transport",
		"paymentMethod": "Card"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/expenses/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var sum map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sum))
	assert.Equal(t, "350.5", sum["totalExpenses"])
	assert.Equal(t, "2026-10-01", sum["startDate"])
	byCat := sum["expensesByCategory"].(map[string]interface{})
	assert.Equal(t, "250.5", byCat["Food"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/expenses/by-date-range?startDate=2026-10-10&endDate=2026-10-31", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Metro", list[0]["description"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/expenses/average-monthly?category=Food", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"41.75"`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/expenses/by-date-range?startDate=bad", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/expenses/by-category", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
