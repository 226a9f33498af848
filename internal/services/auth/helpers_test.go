package auth

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/findosh/spendwatch/internal/logging"
	"github.com/findosh/spendwatch/internal/mailer"
	"github.com/findosh/spendwatch/internal/storage"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-enough-bytes"

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// lastCode extracts the code from the most recent message to email
func (m *recordingMailer) lastCode(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == email {
			code := codePattern.FindString(m.sent[i].Body)
			require.NotEmpty(t, code, "message carries no code")
			return code
		}
	}
	t.Fatalf("no message sent to %s", email)
	return ""
}

type testEnv struct {
	db       *storage.DB
	users    *storage.UserRepository
	sessions *storage.SessionRepository
	otpStore *storage.OTPRepository
	otps     *OTPEngine
	tokens   *TokenLedger
	mail     *recordingMailer
	svc      *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	env := &testEnv{
		db:       db,
		users:    storage.NewUserRepository(db),
		sessions: storage.NewSessionRepository(db),
		otpStore: storage.NewOTPRepository(db),
		mail:     &recordingMailer{},
	}
	env.otps = NewOTPEngine(env.otpStore, 5*time.Minute)
	env.tokens = NewTokenLedger(env.sessions, env.users, testSecret, 2*time.Hour)
	env.svc = NewService(env.users, env.otps, env.tokens, NewBcryptHasher(4), env.mail, logging.Nop())
	return env
}

const testPassword = "Str0ng!pass"

// registerVerified runs the whole registration flow and returns the result
func (e *testEnv) registerVerified(t *testing.T, email string) *Result {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.svc.Register(ctx, RegisterInput{
		Name: "Jane Doe", Phone: "0123456789", Email: email, Password: testPassword,
	}))
	res, err := e.svc.VerifyRegistration(ctx, email, e.mail.lastCode(t, email))
	require.NoError(t, err)
	return res
}
