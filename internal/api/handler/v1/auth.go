package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trailpost/tours-api/internal/api/handler/v1/request"
	"github.com/trailpost/tours-api/internal/api/handler/v1/response"
	"github.com/trailpost/tours-api/internal/config"
	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/pkg/jwthelper"
	"github.com/trailpost/tours-api/internal/service"
)

type AuthService interface {
	Signup(ctx context.Context, user domain.User) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) (domain.User, error)
	UpdatePassword(ctx context.Context, userID uint, currentPassword, newPassword string) (domain.User, error)
}

type AuthHandler struct {
	conf *config.JWTConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.JWTConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// issueToken signs a token for the user and mirrors it into the jwt cookie
// for browser clients.
func (h *AuthHandler) issueToken(ctx *gin.Context, user domain.User) (string, error) {
	expiry := time.Duration(h.conf.ExpiryHours) * time.Hour

	token, err := jwthelper.GenerateToken([]byte(h.conf.SigningKey), user.ID, expiry)
	if err != nil {
		return "", fmt.Errorf("jwthelper.GenerateToken -> %w", err)
	}

	ctx.SetCookie("jwt", token, int(expiry.Seconds()), "/", "", false, true)

	return token, nil
}

// HandleSignup godoc
// @Summary      Signup a new user
// @Tags         auth
// @Produce      json
// @Param        request   body      request.SignupRequest true "request body"
// @Success      201      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/signup [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	var req request.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Signup(ctx.Request.Context(), domain.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserEmailExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrUserEmailExists))
			return
		}

		err = fmt.Errorf("v1.HandleSignup -> h.svc.Signup -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	token, err := h.issueToken(ctx, user)
	if err != nil {
		err = fmt.Errorf("v1.HandleSignup -> h.issueToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.LoginResponse{
		Token: token,
		User:  user,
	})
}

// HandleLogin godoc
// @Summary      Login a user
// @Tags         auth
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      401      {object}   response.Err
// @Failure      429      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		var invalidCredentials *service.InvalidCredentialsError
		if errors.As(err, &invalidCredentials) {
			response.RenderErr(ctx, response.ErrWrongCredentials(invalidCredentials))
			return
		}

		var tooManyAttempts *service.TooManyAttemptsError
		if errors.As(err, &tooManyAttempts) {
			response.RenderErr(ctx, response.ErrTooManyRequests(tooManyAttempts))
			return
		}

		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	token, err := h.issueToken(ctx, user)
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> h.issueToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
		User:  user,
	})
}

// HandleLogout godoc
// @Summary      Logout the current user
// @Tags         auth
// @Produce      json
// @Success      200      {object}   response.MessageResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) HandleLogout(ctx *gin.Context) {
	// Overwrite the cookie with a short lived dummy value.
	ctx.SetCookie("jwt", "loggedout", 10, "/", "", false, true)

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "logged out"})
}

// HandleForgotPassword godoc
// @Summary      Email a password reset token
// @Tags         auth
// @Produce      json
// @Param        request   body      request.ForgotPasswordRequest true "request body"
// @Success      200      {object}   response.MessageResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) HandleForgotPassword(ctx *gin.Context) {
	req := request.ForgotPasswordRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(errors.New("there is no user with that email address")))
			return
		}
		if errors.Is(err, service.ErrEmailDelivery) {
			response.RenderErr(ctx, response.ErrInternalServerError(err))
			return
		}

		err = fmt.Errorf("v1.HandleForgotPassword -> h.svc.ForgotPassword -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "token sent to email"})
}

// HandleResetPassword godoc
// @Summary      Reset the password with an emailed token
// @Tags         auth
// @Produce      json
// @Param        token     path      string true "reset token"
// @Param        request   body      request.ResetPasswordRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/reset-password/{token} [patch]
func (h *AuthHandler) HandleResetPassword(ctx *gin.Context) {
	req := request.ResetPasswordRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.ResetPassword(ctx.Request.Context(), ctx.Param("token"), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrResetTokenInvalid) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrResetTokenInvalid))
			return
		}

		err = fmt.Errorf("v1.HandleResetPassword -> h.svc.ResetPassword -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	token, err := h.issueToken(ctx, user)
	if err != nil {
		err = fmt.Errorf("v1.HandleResetPassword -> h.issueToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
		User:  user,
	})
}

// HandleUpdatePassword godoc
// @Summary      Change the password of the logged in user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Param        request   body      request.UpdatePasswordRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /users/me/password [patch]
func (h *AuthHandler) HandleUpdatePassword(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	req := request.UpdatePasswordRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.UpdatePassword(ctx.Request.Context(), user.ID, req.CurrentPassword, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			response.RenderErr(ctx, response.ErrUnauthorized(service.ErrWrongPassword))
			return
		}

		err = fmt.Errorf("v1.HandleUpdatePassword -> h.svc.UpdatePassword -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	token, err := h.issueToken(ctx, updated)
	if err != nil {
		err = fmt.Errorf("v1.HandleUpdatePassword -> h.issueToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
		User:  updated,
	})
}
