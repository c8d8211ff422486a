package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/pkg/jwthelper"
)

const testSigningKey = "test-signing-key"

type fakeUserRepo struct {
	users map[uint]domain.User
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return domain.User{}, errors.New("user not found")
	}

	return user, nil
}

func newTestRouter(t *testing.T, users ...domain.User) (*gin.Engine, *Authenticator) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	repo := &fakeUserRepo{users: map[uint]domain.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}

	auth := NewAuthenticator(testSigningKey, repo)
	router := gin.New()

	return router, auth
}

func signToken(t *testing.T, userID uint) string {
	t.Helper()

	token, err := jwthelper.GenerateToken([]byte(testSigningKey), userID, time.Hour)
	require.NoError(t, err)

	return token
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestVerifyJWT_BearerHeader(t *testing.T) {
	alice := domain.User{ID: 1, Name: "Alice", Role: domain.RoleUser}
	router, auth := newTestRouter(t, alice)

	router.GET("/me", auth.VerifyJWT(), func(ctx *gin.Context) {
		user := ctx.MustGet(CurrentUserKey).(domain.User)
		ctx.JSON(http.StatusOK, gin.H{"name": user.Name})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, alice.ID))

	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice")
}

func TestVerifyJWT_CookieFallback(t *testing.T) {
	alice := domain.User{ID: 1, Name: "Alice", Role: domain.RoleUser}
	router, auth := newTestRouter(t, alice)

	router.GET("/me", auth.VerifyJWT(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: signToken(t, alice.ID)})

	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyJWT_MissingToken(t *testing.T) {
	router, auth := newTestRouter(t)

	router.GET("/me", auth.VerifyJWT(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not logged in")
}

func TestVerifyJWT_GarbageToken(t *testing.T) {
	router, auth := newTestRouter(t)

	router.GET("/me", auth.VerifyJWT(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	rec := serve(router, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyJWT_UnknownUser(t *testing.T) {
	router, auth := newTestRouter(t)

	router.GET("/me", auth.VerifyJWT(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 42))

	rec := serve(router, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyJWT_TokenIssuedBeforePasswordChange(t *testing.T) {
	changedAt := time.Now().Add(time.Hour)
	alice := domain.User{ID: 1, Name: "Alice", Role: domain.RoleUser, PasswordChangedAt: &changedAt}
	router, auth := newTestRouter(t, alice)

	router.GET("/me", auth.VerifyJWT(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, alice.ID))

	rec := serve(router, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "password was changed")
}

func TestOptionalJWT(t *testing.T) {
	alice := domain.User{ID: 1, Name: "Alice", Role: domain.RoleUser}
	router, auth := newTestRouter(t, alice)

	router.GET("/page", auth.OptionalJWT(), func(ctx *gin.Context) {
		if user, ok := ctx.Get(CurrentUserKey); ok {
			ctx.JSON(http.StatusOK, gin.H{"name": user.(domain.User).Name})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"name": "anonymous"})
	})

	anonymous := serve(router, httptest.NewRequest(http.MethodGet, "/page", nil))
	assert.Equal(t, http.StatusOK, anonymous.Code)
	assert.Contains(t, anonymous.Body.String(), "anonymous")

	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, alice.ID))

	known := serve(router, req)
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Contains(t, known.Body.String(), "Alice")
}

func TestRequireRoles(t *testing.T) {
	admin := domain.User{ID: 1, Name: "Root", Role: domain.RoleAdmin}
	alice := domain.User{ID: 2, Name: "Alice", Role: domain.RoleUser}
	router, auth := newTestRouter(t, admin, alice)

	router.DELETE("/tours/:tourID",
		auth.VerifyJWT(),
		RequireRoles(domain.RoleAdmin, domain.RoleLeadGuide),
		func(ctx *gin.Context) {
			ctx.Status(http.StatusNoContent)
		})

	asAdmin := httptest.NewRequest(http.MethodDelete, "/tours/1", nil)
	asAdmin.Header.Set("Authorization", "Bearer "+signToken(t, admin.ID))
	assert.Equal(t, http.StatusNoContent, serve(router, asAdmin).Code)

	asUser := httptest.NewRequest(http.MethodDelete, "/tours/1", nil)
	asUser.Header.Set("Authorization", "Bearer "+signToken(t, alice.ID))

	rec := serve(router, asUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "permission")
}

func TestRequireRoles_WithoutVerify(t *testing.T) {
	router, _ := newTestRouter(t)

	router.GET("/admin", RequireRoles(domain.RoleAdmin), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
