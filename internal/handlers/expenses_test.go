package handlers

import (
	"net/http"
	"testing"

	"github.com/findosh/spendwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenses_CRUD(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "jane@example.com")

	rec, env := s.do(t, http.MethodPost, "/api/v1/expenses", token, map[string]any{
		"title": "Lunch", "amount": "12.50", "category": "Food & Drinks", "date": "2026-10-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	created := data[models.Expense](t, env)
	assert.Equal(t, "12.5", created.Amount.String())
	assert.Equal(t, "2026-10-01", created.Date.Format("2006-01-02"))

	rec, env = s.do(t, http.MethodGet, "/api/v1/expenses/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lunch", data[models.Expense](t, env).Title)

	rec, env = s.do(t, http.MethodPut, "/api/v1/expenses/"+created.ID.String(), token, map[string]any{"title": "Dinner"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dinner", data[models.Expense](t, env).Title)

	rec, env = s.do(t, http.MethodGet, "/api/v1/expenses?start=2026-10-01&end=2026-10-01", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data[[]models.Expense](t, env), 1)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/expenses/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/expenses/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenses_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "jane@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad date", http.MethodPost, "/api/v1/expenses", map[string]any{"title": "x", "amount": 1, "category": "Others", "date": "18/10/2026"}, http.StatusBadRequest},
		{"unknown category", http.MethodPost, "/api/v1/expenses", map[string]any{"title": "x", "amount": 1, "category": "Gambling"}, http.StatusBadRequest},
		{"zero amount", http.MethodPost, "/api/v1/expenses", map[string]any{"title": "x", "amount": 0, "category": "Others"}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/v1/expenses", "not an object", http.StatusBadRequest},
		{"bad filter", http.MethodGet, "/api/v1/expenses?filter=yesterday", nil, http.StatusBadRequest},
		{"bad range", http.MethodGet, "/api/v1/expenses?range=2d", nil, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/api/v1/expenses/not-a-uuid", nil, http.StatusNotFound},
		{"no token", http.MethodGet, "/api/v1/expenses", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := token
			if tt.name == "no token" {
				tok = ""
			}
			rec, env := s.do(t, tt.method, tt.path, tok, tt.body)
			assert.Equal(t, tt.want, rec.Code, env.Message)
			assert.False(t, env.Success)
		})
	}
}

func TestExpenses_OwnerIsolation(t *testing.T) {
	s := newTestServer(t, nil)
	jane := s.signUp(t, "jane@example.com")
	john := s.signUp(t, "john@example.com")

	rec, env := s.do(t, http.MethodPost, "/api/v1/expenses", jane, map[string]any{"title": "Rent", "amount": 900, "category": "Housing"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := data[models.Expense](t, env).ID.String()

	rec, _ = s.do(t, http.MethodGet, "/api/v1/expenses/"+id, john, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/expenses/"+id, john, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	categories := data[[]models.Category](t, env)
	require.NotEmpty(t, categories)

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Food & Drinks")
}
