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

type ReviewService interface {
	CreateReview(ctx context.Context, review domain.Review) (domain.Review, error)
	GetReview(ctx context.Context, id uint) (domain.Review, error)
	ListReviewsForTour(ctx context.Context, tourID uint) ([]domain.Review, error)
	UpdateReview(ctx context.Context, id uint, actor domain.User, text string, rating int) (domain.Review, error)
	DeleteReview(ctx context.Context, id uint, actor domain.User) error
}

type ReviewHandler struct {
	svc ReviewService
}

func NewReviewHandler(svc ReviewService) *ReviewHandler {
	return &ReviewHandler{
		svc: svc,
	}
}

// HandleListTourReviews godoc
// @Summary      List reviews of a tour
// @Tags         reviews
// @Produce      json
// @Param        tourID   path      int true "tour ID"
// @Success      200      {object}  []domain.Review
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/{tourID}/reviews [get]
func (h *ReviewHandler) HandleListTourReviews(ctx *gin.Context) {
	tourID, err := parseUintParam(ctx, "tourID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reviews, err := h.svc.ListReviewsForTour(ctx.Request.Context(), tourID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListTourReviews -> h.svc.ListReviewsForTour -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, reviews)
}

// HandleCreateReview godoc
// @Summary      Review a booked tour
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        tourID   path      int true "tour ID"
// @Param        request  body      request.CreateReviewRequest true "request body"
// @Success      201      {object}  domain.Review
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/{tourID}/reviews [post]
func (h *ReviewHandler) HandleCreateReview(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	tourID, err := parseUintParam(ctx, "tourID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.CreateReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	review, err := h.svc.CreateReview(ctx.Request.Context(), domain.Review{
		TourID: tourID,
		UserID: user.ID,
		Review: req.Review,
		Rating: req.Rating,
	})
	if err != nil {
		if errors.Is(err, service.ErrReviewRequiresBooking) {
			response.RenderErr(ctx, response.ErrForbidden(service.ErrReviewRequiresBooking))
			return
		}
		if errors.Is(err, service.ErrDuplicateReview) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrDuplicateReview))
			return
		}

		err = fmt.Errorf("v1.HandleCreateReview -> h.svc.CreateReview -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, review)
}

// HandleGetReview godoc
// @Summary      Get a review by id
// @Tags         reviews
// @Produce      json
// @Param        reviewID path      int true "review ID"
// @Success      200      {object}  domain.Review
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /reviews/{reviewID} [get]
func (h *ReviewHandler) HandleGetReview(ctx *gin.Context) {
	reviewID, err := parseUintParam(ctx, "reviewID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	review, err := h.svc.GetReview(ctx.Request.Context(), reviewID)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrReviewNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetReview -> h.svc.GetReview -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, review)
}

// HandleUpdateReview godoc
// @Summary      Update an own review
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        reviewID path      int true "review ID"
// @Param        request  body      request.UpdateReviewRequest true "request body"
// @Success      200      {object}  domain.Review
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /reviews/{reviewID} [patch]
func (h *ReviewHandler) HandleUpdateReview(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	reviewID, err := parseUintParam(ctx, "reviewID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdateReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	review, err := h.svc.UpdateReview(ctx.Request.Context(), reviewID, user, req.Review, req.Rating)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrReviewNotFound))
			return
		}
		if errors.Is(err, service.ErrReviewForbidden) {
			response.RenderErr(ctx, response.ErrForbidden(service.ErrReviewForbidden))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateReview -> h.svc.UpdateReview -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, review)
}

// HandleDeleteReview godoc
// @Summary      Delete an own review
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        reviewID path      int true "review ID"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /reviews/{reviewID} [delete]
func (h *ReviewHandler) HandleDeleteReview(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	reviewID, err := parseUintParam(ctx, "reviewID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.DeleteReview(ctx.Request.Context(), reviewID, user); err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrReviewNotFound))
			return
		}
		if errors.Is(err, service.ErrReviewForbidden) {
			response.RenderErr(ctx, response.ErrForbidden(service.ErrReviewForbidden))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteReview -> h.svc.DeleteReview -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
