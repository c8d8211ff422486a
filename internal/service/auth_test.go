package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trailpost/tours-api/internal/pkg/loginguard"
	"github.com/trailpost/tours-api/internal/repository/dao"
)

type fakeMailer struct {
	welcomes    []string
	resetURLs   []string
	failWelcome bool
	failReset   bool
}

func (m *fakeMailer) SendWelcome(to, name string) error {
	if m.failWelcome {
		return errors.New("smtp down")
	}
	m.welcomes = append(m.welcomes, to)

	return nil
}

func (m *fakeMailer) SendPasswordReset(to, name, resetURL string) error {
	if m.failReset {
		return errors.New("smtp down")
	}
	m.resetURLs = append(m.resetURLs, resetURL)

	return nil
}

const testResetURL = "http://localhost:8080/api/v1/auth/reset-password/"

func newTestAuthService(t *testing.T) (*AuthService, testRepos, *fakeMailer) {
	t.Helper()

	repos := newTestRepos(newTestDB(t))
	m := &fakeMailer{}
	svc := NewAuthService(repos.users, loginguard.New(5), m, testResetURL)

	return svc, repos, m
}

func TestAuthService_Signup(t *testing.T) {
	svc, repos, m := newTestAuthService(t)

	user, err := svc.Signup(context.Background(), domainUser("New User", "  Alice@Example.COM  ", "pass1234"))
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "user", user.Role)
	assert.Equal(t, []string{"alice@example.com"}, m.welcomes)

	// The stored password is a bcrypt hash of the plaintext.
	stored, err := repos.users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("pass1234")))
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Signup(context.Background(), domainUser("Alice", "alice@example.com", "pass1234"))
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), domainUser("Impostor", "Alice@example.com", "other1234"))
	assert.ErrorIs(t, err, ErrUserEmailExists)
}

func TestAuthService_Signup_WelcomeFailureIsNotFatal(t *testing.T) {
	svc, _, m := newTestAuthService(t)
	m.failWelcome = true

	_, err := svc.Signup(context.Background(), domainUser("Alice", "alice@example.com", "pass1234"))
	assert.NoError(t, err)
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Signup(context.Background(), domainUser("Alice", "alice@example.com", "pass1234"))
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), "Alice@Example.com", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestAuthService_Login_Throttle(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Signup(context.Background(), domainUser("Alice", "alice@example.com", "pass1234"))
	require.NoError(t, err)

	// Four bad passwords count down the attempt budget.
	for _, want := range []int{4, 3, 2, 1} {
		_, err := svc.Login(context.Background(), "alice@example.com", "wrong")
		var invalid *InvalidCredentialsError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, want, invalid.AttemptsLeft)
	}

	// The fifth failure engages the lockout.
	_, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	var locked *TooManyAttemptsError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 60, locked.RetryMinutes())

	// Even the correct password is refused while locked.
	_, err = svc.Login(context.Background(), "alice@example.com", "pass1234")
	assert.ErrorAs(t, err, &locked)

	// An unknown email burns attempts for its own identity only.
	_, err = svc.Login(context.Background(), "nobody@example.com", "whatever")
	var invalid *InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 4, invalid.AttemptsLeft)
}

func TestAuthService_Login_SuccessResetsThrottle(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Signup(context.Background(), domainUser("Alice", "alice@example.com", "pass1234"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _ = svc.Login(context.Background(), "alice@example.com", "wrong")
	}

	_, err = svc.Login(context.Background(), "alice@example.com", "pass1234")
	require.NoError(t, err)

	// The counter starts over after the successful login.
	_, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	var invalid *InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 4, invalid.AttemptsLeft)
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	svc, _, m := newTestAuthService(t)

	_, err := svc.Signup(context.Background(), domainUser("Alice", "alice@example.com", "pass1234"))
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com"))
	require.Len(t, m.resetURLs, 1)
	require.True(t, strings.HasPrefix(m.resetURLs[0], testResetURL))

	token := strings.TrimPrefix(m.resetURLs[0], testResetURL)
	require.Len(t, token, 64) // 32 random bytes, hex encoded

	user, err := svc.ResetPassword(context.Background(), token, "newpass123")
	require.NoError(t, err)
	assert.NotNil(t, user.PasswordChangedAt)

	_, err = svc.Login(context.Background(), "alice@example.com", "newpass123")
	assert.NoError(t, err)

	// The token is single use.
	_, err = svc.ResetPassword(context.Background(), token, "again12345")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_ForgotPassword_DeliveryFailureRollsBack(t *testing.T) {
	svc, repos, m := newTestAuthService(t)
	m.failReset = true

	user, err := svc.Signup(context.Background(), domainUser("Alice", "alice@example.com", "pass1234"))
	require.NoError(t, err)

	err = svc.ForgotPassword(context.Background(), "alice@example.com")
	require.ErrorIs(t, err, ErrEmailDelivery)

	// The dangling token was cleared on the record.
	var stored dao.User
	require.NoError(t, repos.db.Where("id = ?", user.ID).First(&stored).Error)
	assert.Nil(t, stored.PasswordResetToken)

	m.failReset = false
	require.NoError(t, svc.ForgotPassword(context.Background(), "alice@example.com"))
	token := strings.TrimPrefix(m.resetURLs[0], testResetURL)
	_, err = svc.ResetPassword(context.Background(), token, "newpass123")
	assert.NoError(t, err)
}

func TestAuthService_ResetPassword_BadToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.ResetPassword(context.Background(), "not-a-real-token", "newpass123")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestAuthService_UpdatePassword(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	user, err := svc.Signup(context.Background(), domainUser("Alice", "alice@example.com", "pass1234"))
	require.NoError(t, err)

	_, err = svc.UpdatePassword(context.Background(), user.ID, "wrong", "newpass123")
	assert.ErrorIs(t, err, ErrWrongPassword)

	updated, err := svc.UpdatePassword(context.Background(), user.ID, "pass1234", "newpass123")
	require.NoError(t, err)
	assert.NotNil(t, updated.PasswordChangedAt)

	_, err = svc.Login(context.Background(), "alice@example.com", "newpass123")
	assert.NoError(t, err)
}
