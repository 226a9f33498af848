package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/findosh/spendwatch/internal/apperr"
	"github.com/findosh/spendwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	valid := RegisterInput{Name: "Jane Doe", Phone: "0123456789", Email: "jane@example.com", Password: testPassword}

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{"digits in name", func(in *RegisterInput) { in.Name = "Jane 2" }},
		{"short phone", func(in *RegisterInput) { in.Phone = "12345" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"weak password", func(in *RegisterInput) { in.Password = "password" }},
		{"no symbol", func(in *RegisterInput) { in.Password = "Passw0rdd" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := env.svc.Register(ctx, in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
	assert.Empty(t, env.mail.sent)
}

func TestRegisterAndVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.svc.Register(ctx, RegisterInput{
		Name: "Jane Doe", Phone: "0123456789", Email: "  Jane@Example.com ", Password: testPassword,
	}))

	u, err := env.users.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.False(t, u.IsVerified)

	res, err := env.svc.VerifyRegistration(ctx, "jane@example.com", env.mail.lastCode(t, "jane@example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, models.RoleUser, res.Role)
	assert.True(t, res.User.IsVerified)

	authed, err := env.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, authed.ID)

	_, err = env.svc.VerifyRegistration(ctx, "jane@example.com", "123456")
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	err = env.svc.Register(ctx, RegisterInput{Name: "Other", Phone: "0123456789", Email: "jane@example.com", Password: testPassword})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegister_OverwritesUnverified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := RegisterInput{Name: "First Name", Phone: "0123456789", Email: "jane@example.com", Password: testPassword}
	require.NoError(t, env.svc.Register(ctx, in))
	first := env.mail.lastCode(t, in.Email)

	in.Name = "Second Name"
	require.NoError(t, env.svc.Register(ctx, in))
	second := env.mail.lastCode(t, in.Email)

	u, err := env.users.GetByEmail(ctx, in.Email)
	require.NoError(t, err)
	assert.Equal(t, "Second Name", u.Name)

	if first != second {
		_, err = env.svc.VerifyRegistration(ctx, in.Email, first)
		assert.ErrorIs(t, err, ErrOTPMismatch, "the first code was replaced")
	}
	_, err = env.svc.VerifyRegistration(ctx, in.Email, second)
	assert.NoError(t, err)
}

func TestRegister_MailFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mail.err = errors.New("relay down")

	err := env.svc.Register(context.Background(), RegisterInput{
		Name: "Jane Doe", Phone: "0123456789", Email: "jane@example.com", Password: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestVerifyRegistration_MismatchKeepsCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := RegisterInput{Name: "Jane Doe", Phone: "0123456789", Email: "jane@example.com", Password: testPassword}
	require.NoError(t, env.svc.Register(ctx, in))
	code := env.mail.lastCode(t, in.Email)

	_, err := env.svc.VerifyRegistration(ctx, in.Email, "999999x")
	assert.Error(t, err)

	_, err = env.svc.VerifyRegistration(ctx, in.Email, code)
	require.NoError(t, err)
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, "jane@example.com")

	err := env.svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "Wr0ng!pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = env.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: testPassword})
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, env.svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: testPassword}))
	code := env.mail.lastCode(t, "jane@example.com")

	_, err = env.svc.VerifyLogin(ctx, "jane@example.com", code, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotAdmin)

	res, err := env.svc.VerifyLogin(ctx, "jane@example.com", code, "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = env.svc.VerifyLogin(ctx, "jane@example.com", code, "")
	assert.ErrorIs(t, err, ErrOTPNotFound, "login codes are single use")

	require.NoError(t, env.svc.Logout(ctx, res.Token))
	_, err = env.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLogin_RegistrationCodeCannotLogIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := RegisterInput{Name: "Jane Doe", Phone: "0123456789", Email: "jane@example.com", Password: testPassword}
	require.NoError(t, env.svc.Register(ctx, in))

	_, err := env.svc.VerifyLogin(ctx, in.Email, env.mail.lastCode(t, in.Email), "")
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestLogin_Unverified(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.svc.Register(ctx, RegisterInput{
		Name: "Jane Doe", Phone: "0123456789", Email: "jane@example.com", Password: testPassword,
	}))

	err := env.svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: testPassword})
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestLogin_Deactivated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.registerVerified(t, "jane@example.com")
	require.NoError(t, env.users.SetStatus(ctx, res.User.ID, models.AccountDeactivated))

	err := env.svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: testPassword})
	assert.ErrorIs(t, err, ErrAccountDeactivated)

	_, err = env.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.svc.CreateAdmin(ctx, "Root Admin", "root@example.com", testPassword)
	require.NoError(t, err)
	assert.True(t, admin.IsVerified)
	assert.True(t, admin.IsAdmin())

	_, err = env.svc.CreateAdmin(ctx, "Root Admin", "root@example.com", testPassword)
	assert.ErrorIs(t, err, ErrEmailExists)

	require.NoError(t, env.svc.Login(ctx, LoginInput{Email: "root@example.com", Password: testPassword, Role: models.RoleAdmin}))
	res, err := env.svc.VerifyLogin(ctx, "root@example.com", env.mail.lastCode(t, "root@example.com"), models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Role)

	env.registerVerified(t, "jane@example.com")
	err = env.svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: testPassword, Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.registerVerified(t, "jane@example.com")

	err := env.svc.ChangePassword(ctx, res.User, "Wr0ng!pass", "N3w!password")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	err = env.svc.ChangePassword(ctx, res.User, testPassword, "weak")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, env.svc.ChangePassword(ctx, res.User, testPassword, "N3w!password"))

	_, err = env.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidCredential, "changing the password revokes tokens")

	assert.ErrorIs(t, env.svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: testPassword}), ErrInvalidCredentials)
	assert.NoError(t, env.svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "N3w!password"}))
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.registerVerified(t, "jane@example.com")

	assert.ErrorIs(t, env.svc.RequestPasswordReset(ctx, "nobody@example.com"), ErrUserNotFound)

	require.NoError(t, env.svc.RequestPasswordReset(ctx, "jane@example.com"))
	code := env.mail.lastCode(t, "jane@example.com")

	err := env.svc.ResetPassword(ctx, "jane@example.com", code, "weak")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, env.svc.ResetPassword(ctx, "jane@example.com", code, "R3set!pass"))

	_, err = env.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	assert.ErrorIs(t, env.svc.ResetPassword(ctx, "jane@example.com", code, "An0ther!pass"), ErrOTPNotFound)
	assert.NoError(t, env.svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "R3set!pass"}))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jane := env.registerVerified(t, "jane@example.com")
	env.registerVerified(t, "john@example.com")

	name := "Janet Doe"
	phone := "9876543210"
	updated, err := env.svc.UpdateProfile(ctx, jane.User, ProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Janet Doe", updated.Name)
	assert.Equal(t, "9876543210", updated.Phone)

	taken := "JOHN@example.com"
	_, err = env.svc.UpdateProfile(ctx, jane.User, ProfileInput{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailExists)

	bad := "12"
	_, err = env.svc.UpdateProfile(ctx, jane.User, ProfileInput{Phone: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	fresh := "janet@example.com"
	updated, err = env.svc.UpdateProfile(ctx, jane.User, ProfileInput{Email: &fresh})
	require.NoError(t, err)
	assert.Equal(t, "janet@example.com", updated.Email)
	assert.True(t, updated.IsVerified)
}
