package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trailpost/tours-api/internal/api/handler/v1/response"
	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/pkg/jwthelper"
)

// CurrentUserKey is the gin context key under which the authenticated user is
// stored.
const CurrentUserKey = "current_user"

var (
	errMissingToken    = errors.New("you are not logged in")
	errInvalidToken    = errors.New("invalid or expired token")
	errStaleToken      = errors.New("password was changed after this token was issued")
	errNotEnoughRights = errors.New("you do not have permission to perform this action")
)

type AuthUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type Authenticator struct {
	signingKey []byte
	userRepo   AuthUserRepository
}

func NewAuthenticator(signingKey string, userRepo AuthUserRepository) *Authenticator {
	return &Authenticator{
		signingKey: []byte(signingKey),
		userRepo:   userRepo,
	}
}

// VerifyJWT requires a valid token, loads the user it names and rejects
// tokens issued before the user's last password change.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, err := a.resolveUser(ctx)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		ctx.Set(CurrentUserKey, user)
		ctx.Next()
	}
}

// OptionalJWT resolves the user when a valid token is present and stays
// silent otherwise, so public pages can render either way.
func (a *Authenticator) OptionalJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if user, err := a.resolveUser(ctx); err == nil {
			ctx.Set(CurrentUserKey, user)
		}

		ctx.Next()
	}
}

func (a *Authenticator) resolveUser(ctx *gin.Context) (domain.User, error) {
	token := extractToken(ctx)
	if token == "" {
		return domain.User{}, errMissingToken
	}

	claims, err := jwthelper.ParseToken(a.signingKey, token)
	if err != nil {
		return domain.User{}, errInvalidToken
	}

	user, err := a.userRepo.FindByID(ctx.Request.Context(), claims.UserID)
	if err != nil {
		return domain.User{}, errInvalidToken
	}

	if user.PasswordChangedAt != nil && claims.IssuedBefore(*user.PasswordChangedAt) {
		return domain.User{}, errStaleToken
	}

	return user, nil
}

// extractToken reads the Authorization Bearer header first and falls back to
// the jwt cookie.
func extractToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	if cookie, err := ctx.Cookie("jwt"); err == nil {
		return cookie
	}

	return ""
}

// RequireRoles allows the request through only when the authenticated user
// holds one of the given roles. It must run after VerifyJWT.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, ok := ctx.Get(CurrentUserKey)
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		user, ok := value.(domain.User)
		if !ok || !user.HasRole(roles...) {
			response.RenderErr(ctx, response.ErrForbidden(errNotEnoughRights))
			return
		}

		ctx.Next()
	}
}
