package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/findosh/spendwatch/internal/models"
	"github.com/findosh/spendwatch/internal/services/admin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_RequiresAdminRole(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "jane@example.com")

	rec, _ := s.do(t, http.MethodGet, "/api/v1/admin/users", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_ManageUsers(t *testing.T) {
	s := newTestServer(t, nil)
	userToken := s.signUp(t, "jane@example.com")
	adminToken := s.adminToken(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/expenses", userToken, map[string]any{"title": "Rent", "amount": 900, "category": "Housing"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := data[[]models.User](t, env)
	require.Len(t, users, 1)
	jane := users[0]
	assert.Equal(t, "jane@example.com", jane.Email)

	rec, env = s.do(t, http.MethodGet, "/api/v1/admin/users/"+jane.ID.String()+"/expenses", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data[[]models.Expense](t, env), 1)

	rec, env = s.do(t, http.MethodGet, "/api/v1/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := data[admin.Stats](t, env)
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalExpenses)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/admin/users/"+jane.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/expenses", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "a deactivated account is forbidden, not unauthenticated")

	rec, _ = s.do(t, http.MethodPut, "/api/v1/admin/users/"+jane.ID.String()+"/activate", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/expenses", userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/admin/users/not-a-uuid", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_Export(t *testing.T) {
	s := newTestServer(t, nil)
	userToken := s.signUp(t, "jane@example.com")
	adminToken := s.adminToken(t)

	for _, title := range []string{"Rent", "Fuel"} {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/expenses", userToken, map[string]any{"title": title, "amount": 10, "category": "Others"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, _ := s.do(t, http.MethodGet, "/api/v1/admin/export/expenses", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=expenses.json", rec.Header().Get("Content-Disposition"))

	var exported []models.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exported))
	assert.Len(t, exported, 2)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "jane@example.com")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/budgets", token, map[string]any{
		"name": "Food", "period": "month", "amount": 10, "categories": []string{"Food & Drinks"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/expenses", token, map[string]any{"title": "Feast", "amount": 25, "category": "Food & Drinks"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := data[dashboard](t, env)
	assert.Len(t, d.Budgets, 1)
	assert.Len(t, d.Overspent, 1)
	require.Len(t, d.Categories, 1)
	assert.Equal(t, "Food & Drinks", d.Categories[0].Category)
	assert.Equal(t, "25", d.Categories[0].Total.String())
	assert.NotEmpty(t, d.Categories[0].Color)

	rec, env = s.do(t, http.MethodGet, "/api/v1/analytics/piechart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data[[]models.CategoryTotal](t, env), 1)
}
