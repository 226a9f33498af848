package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/mailer"
	"github.com/findosh/spendwatch/internal/middleware"
	"github.com/findosh/spendwatch/internal/services/admin"
	"github.com/findosh/spendwatch/internal/services/alerts"
	"github.com/findosh/spendwatch/internal/services/analytics"
	"github.com/findosh/spendwatch/internal/services/auth"
	"github.com/findosh/spendwatch/internal/services/budgets"
	"github.com/findosh/spendwatch/internal/services/expenses"
	"github.com/findosh/spendwatch/internal/services/goals"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!pass"

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (m *recordingMailer) lastCode(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == email {
			code := codePattern.FindString(m.sent[i].Body)
			require.NotEmpty(t, code)
			return code
		}
	}
	t.Fatalf("no message sent to %s", email)
	return ""
}

func (m *recordingMailer) count(subjectPrefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.sent {
		if strings.HasPrefix(msg.Subject, subjectPrefix) {
			n++
		}
	}
	return n
}

type testServer struct {
	router  http.Handler
	mail    *recordingMailer
	authSvc *auth.Service
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	return newTestServerBehindProxy(t, limiter, false)
}

func newTestServerBehindProxy(t *testing.T, limiter *middleware.RateLimiter, trustProxy bool) *testServer {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	logger := logging.Nop()
	mail := &recordingMailer{}

	users := storage.NewUserRepository(db)
	sessions := storage.NewSessionRepository(db)
	expenseRepo := storage.NewExpenseRepository(db)
	budgetRepo := storage.NewBudgetRepository(db)
	goalRepo := storage.NewGoalRepository(db)
	categories := storage.NewCategoryRepository(db)

	tokens := auth.NewTokenLedger(sessions, users, "test-secret-key-with-enough-bytes", 2*time.Hour)
	authSvc := auth.NewService(users, auth.NewOTPEngine(storage.NewOTPRepository(db), 5*time.Minute),
		tokens, auth.NewBcryptHasher(4), mail, logger)
	dispatcher := alerts.NewDispatcher(budgetRepo, expenseRepo, mail, logger)

	h := New(Services{
		Auth:       authSvc,
		Expenses:   expenses.NewService(expenseRepo, categories, dispatcher, logger),
		Budgets:    budgets.NewService(budgetRepo, expenseRepo, categories, dispatcher, logger),
		Goals:      goals.NewService(goalRepo, logger),
		Analytics:  analytics.NewService(expenseRepo),
		Admin:      admin.NewService(users, expenseRepo, budgetRepo, goalRepo, logger),
		Categories: categories,
	}, logger)

	if limiter == nil {
		limiter = middleware.NewRateLimiter(1000, 1000, time.Minute)
	}
	return &testServer{
		router:  h.Routes(middleware.NewAuth(authSvc, logger), limiter, logger, trustProxy),
		mail:    mail,
		authSvc: authSvc,
	}
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env response
	if rec.Header().Get("Content-Disposition") == "" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func data[T any](t *testing.T, env response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

// signUp registers and verifies an account and returns its token
func (s *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	rec, _ := s.do(t, http.MethodPost, "/api/v1/user/register", "", map[string]string{
		"name": "Jane Doe", "phone": "0123456789", "email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/v1/user/otp-verification/"+s.mail.lastCode(t, email), "",
		map[string]string{"email": email})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	return data[auth.Result](t, env).Token
}

// adminToken creates an admin and logs it in through the admin endpoints
func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	const email = "root@example.com"
	_, err := s.authSvc.CreateAdmin(context.Background(), "Root Admin", email, testPassword)
	require.NoError(t, err)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/api/v1/admin/otp-verification/"+s.mail.lastCode(t, email), "",
		map[string]string{"email": email})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	return data[auth.Result](t, env).Token
}
