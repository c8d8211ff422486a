package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/pkg/loginguard"
	"github.com/trailpost/tours-api/internal/pkg/mailer"
	"github.com/trailpost/tours-api/internal/repository"
)

var (
	ErrUserEmailExists   = repository.ErrUserEmailExists
	ErrUserNotFound      = repository.ErrUserNotFound
	ErrResetTokenInvalid = errors.New("reset token is invalid or has expired")
	ErrWrongPassword     = errors.New("wrong password")
	ErrEmailDelivery     = errors.New("failed to send the email")
)

// InvalidCredentialsError is a failed login that has not yet exhausted the
// attempt budget.
type InvalidCredentialsError struct {
	AttemptsLeft int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("incorrect email or password, %d attempts left", e.AttemptsLeft)
}

// TooManyAttemptsError is the engaged login throttle.
type TooManyAttemptsError struct {
	RetryIn time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("maximum number of login attempts reached, try again in %d minutes", e.RetryMinutes())
}

func (e *TooManyAttemptsError) RetryMinutes() int {
	return int(math.Ceil(e.RetryIn.Minutes()))
}

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string, changedAt time.Time) (domain.User, error)
	SetResetToken(ctx context.Context, id uint, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uint) error
}

type AuthService struct {
	repo     AuthUserRepository
	guard    *loginguard.Guard
	mailer   mailer.Mailer
	resetURL string
}

// NewAuthService wires the credential store, the per-identity login throttle
// and the mailer. resetURL is the public prefix reset tokens are appended to.
func NewAuthService(repo AuthUserRepository, guard *loginguard.Guard, m mailer.Mailer, resetURL string) *AuthService {
	return &AuthService{
		repo:     repo,
		guard:    guard,
		mailer:   m,
		resetURL: resetURL,
	}
}

func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	user.Email = NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}
	user.Password = string(hash)

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	// A failed welcome email never fails the signup.
	if err := s.mailer.SendWelcome(created.Email, created.Name); err != nil {
		zap.L().Warn("failed to send welcome email",
			zap.String("email", created.Email),
			zap.Error(err))
	}

	return created, nil
}

// Login evaluates credentials behind the per-identity throttle. The throttle
// is consulted before the credential check, incremented on every failure and
// reset on success.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	identity := NormalizeEmail(email)

	if locked, retryIn := s.guard.Check(identity); locked {
		return domain.User{}, &TooManyAttemptsError{RetryIn: retryIn}
	}

	user, err := s.repo.FindByEmail(ctx, identity)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, s.failedAttempt(identity)
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, s.failedAttempt(identity)
	}

	s.guard.Reset(identity)

	return user, nil
}

func (s *AuthService) failedAttempt(identity string) error {
	locked, retryIn, attemptsLeft := s.guard.Fail(identity)
	if locked {
		return &TooManyAttemptsError{RetryIn: retryIn}
	}

	return &InvalidCredentialsError{AttemptsLeft: attemptsLeft}
}

// ForgotPassword stores a hashed reset token on the user and emails the raw
// token. If delivery fails the token is rolled back before the error is
// reported, so no unusable token is left dangling on the record.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("rand.Read -> %w", err)
	}
	token := hex.EncodeToString(raw)

	expires := time.Now().Add(10 * time.Minute)
	if err := s.repo.SetResetToken(ctx, user.ID, hashToken(token), expires); err != nil {
		return fmt.Errorf("s.repo.SetResetToken -> %w", err)
	}

	resetURL := strings.TrimSuffix(s.resetURL, "/") + "/" + token
	if err := s.mailer.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
		if rollbackErr := s.repo.ClearResetToken(ctx, user.ID); rollbackErr != nil {
			zap.L().Error("failed to roll back reset token",
				zap.Uint("user_id", user.ID),
				zap.Error(rollbackErr))
		}

		return fmt.Errorf("%w -> %w", ErrEmailDelivery, err)
	}

	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (domain.User, error) {
	user, err := s.repo.FindByResetToken(ctx, hashToken(token), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrResetTokenInvalid
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByResetToken -> %w", err)
	}

	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID uint, currentPassword, newPassword string) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *AuthService) setPassword(ctx context.Context, userID uint, newPassword string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	// Stamped one second in the past so a token minted in the same second as
	// the change remains valid.
	changedAt := time.Now().Add(-time.Second)

	updated, err := s.repo.UpdatePassword(ctx, userID, string(hash), changedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdatePassword -> %w", err)
	}

	return updated, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
