package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trailpost/tours-api/internal/api/handler/v1/request"
	"github.com/trailpost/tours-api/internal/api/handler/v1/response"
	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/service"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id uint, name, email, photo string) (domain.User, error)
	DeactivateMe(ctx context.Context, id uint) error
	DeleteUser(ctx context.Context, id uint) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{
		svc: svc,
	}
}

// HandleGetMe godoc
// @Summary      Get the logged in user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200      {object}  domain.User
// @Failure      401      {object}  response.Err
// @Router       /users/me [get]
func (h *UserHandler) HandleGetMe(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleUpdateMe godoc
// @Summary      Update the profile of the logged in user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        request  body      request.UpdateMeRequest true "request body"
// @Success      200      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /users/me [patch]
func (h *UserHandler) HandleUpdateMe(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	var req request.UpdateMeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	updated, err := h.svc.UpdateProfile(ctx.Request.Context(), user.ID, req.Name, req.Email, req.Photo)
	if err != nil {
		if errors.Is(err, service.ErrUserEmailExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrUserEmailExists))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateMe -> h.svc.UpdateProfile -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// HandleDeleteMe godoc
// @Summary      Deactivate the account of the logged in user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      204
// @Failure      401      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /users/me [delete]
func (h *UserHandler) HandleDeleteMe(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	if err := h.svc.DeactivateMe(ctx.Request.Context(), user.ID); err != nil {
		err = fmt.Errorf("v1.HandleDeleteMe -> h.svc.DeactivateMe -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListUsers godoc
// @Summary      List all active users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200      {object}  []domain.User
// @Failure      500      {object}  response.Err
// @Router       /users [get]
func (h *UserHandler) HandleListUsers(ctx *gin.Context) {
	users, err := h.svc.ListUsers(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListUsers -> h.svc.ListUsers -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleGetUser godoc
// @Summary      Get a user by id
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        userID   path      int true "user ID"
// @Success      200      {object}  domain.User
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /users/{userID} [get]
func (h *UserHandler) HandleGetUser(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "userID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrUserNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetUser -> h.svc.GetUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// HandleDeleteUser godoc
// @Summary      Delete a user and everything they contributed
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        userID   path      int true "user ID"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /users/{userID} [delete]
func (h *UserHandler) HandleDeleteUser(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "userID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.DeleteUser(ctx.Request.Context(), userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrUserNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteUser -> h.svc.DeleteUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
