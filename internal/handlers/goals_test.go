package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/findosh/spendwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "jane@example.com")
	desired := time.Now().UTC().AddDate(0, 2, 0).Format(time.DateOnly)

	rec, env := s.do(t, http.MethodPost, "/api/v1/goals", token, map[string]any{
		"name": "Bike", "target_amount": 1000, "saved_amount": 100, "desired_date": desired,
	})
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	id := data[models.Goal](t, env).ID.String()

	rec, _ = s.do(t, http.MethodPatch, "/api/v1/goals/"+id+"/add-saving", token, map[string]any{"amount": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodPatch, "/api/v1/goals/"+id+"/add-saving", token, map[string]any{"amount": 400})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "500", data[models.Goal](t, env).SavedAmount.String())

	rec, env = s.do(t, http.MethodGet, "/api/v1/goals/"+id+"/progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := data[models.GoalProgress](t, env)
	assert.Equal(t, "50", progress.Percent.String())
	assert.Equal(t, "500", progress.Remaining.String())

	rec, env = s.do(t, http.MethodPut, "/api/v1/goals/"+id, token, map[string]any{"name": "Road bike"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Road bike", data[models.Goal](t, env).Name)

	rec, env = s.do(t, http.MethodPatch, "/api/v1/goals/"+id+"/reached", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, data[models.Goal](t, env).IsReached)

	rec, env = s.do(t, http.MethodGet, "/api/v1/goals", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data[[]models.Goal](t, env), 1)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/goals/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/goals/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGoals_BadDate(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signUp(t, "jane@example.com")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/goals", token, map[string]any{
		"name": "Bike", "target_amount": 1000, "desired_date": "someday",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
