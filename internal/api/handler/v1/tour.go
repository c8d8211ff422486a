package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trailpost/tours-api/internal/api/handler/v1/request"
	"github.com/trailpost/tours-api/internal/api/handler/v1/response"
	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/service"
)

const defaultPageSize = 100

type TourService interface {
	CreateTour(ctx context.Context, tour domain.Tour) (domain.Tour, error)
	GetTour(ctx context.Context, id uint) (domain.Tour, error)
	GetTourBySlug(ctx context.Context, slug string) (domain.Tour, error)
	ListTours(ctx context.Context, sortParam string, limit, offset int) ([]domain.Tour, error)
	ListTopCheapTours(ctx context.Context) ([]domain.Tour, error)
	UpdateTour(ctx context.Context, id uint, updates domain.Tour) (domain.Tour, error)
	DeleteTour(ctx context.Context, id uint) error
	GetTourStats(ctx context.Context) ([]domain.TourStats, error)
	GetMonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlanEntry, error)
	FindToursWithin(ctx context.Context, lat, lng, distance float64, unit string) ([]domain.Tour, error)
	TourDistances(ctx context.Context, lat, lng float64, unit string) ([]domain.TourDistance, error)
}

type TourHandler struct {
	svc TourService
}

func NewTourHandler(svc TourService) *TourHandler {
	return &TourHandler{
		svc: svc,
	}
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %v %q", name, raw)
	}

	return uint(id), nil
}

// parseLatLng splits a "lat,lng" path segment into its two coordinates.
func parseLatLng(raw string) (lat, lng float64, err error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, service.ErrInvalidCoordinates
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, service.ErrInvalidCoordinates
	}

	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, service.ErrInvalidCoordinates
	}

	return lat, lng, nil
}

// HandleListTours godoc
// @Summary      List tours
// @Tags         tours
// @Produce      json
// @Param        sort     query     string false "sort expression, e.g. -price or ratings_average"
// @Param        limit    query     int    false "page size"
// @Param        page     query     int    false "page number, starting at 1"
// @Success      200      {object}  []domain.Tour
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours [get]
func (h *TourHandler) HandleListTours(ctx *gin.Context) {
	sortParam := ctx.Query("sort")

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}

	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}

	tours, err := h.svc.ListTours(ctx.Request.Context(), sortParam, limit, (page-1)*limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSortField) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleListTours -> h.svc.ListTours -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tours)
}

// HandleTopCheapTours godoc
// @Summary      The five best rated tours, cheapest first
// @Tags         tours
// @Produce      json
// @Success      200      {object}  []domain.Tour
// @Failure      500      {object}  response.Err
// @Router       /tours/top-5-cheap [get]
func (h *TourHandler) HandleTopCheapTours(ctx *gin.Context) {
	tours, err := h.svc.ListTopCheapTours(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleTopCheapTours -> h.svc.ListTopCheapTours -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tours)
}

// HandleGetTour godoc
// @Summary      Get a tour by id
// @Tags         tours
// @Produce      json
// @Param        tourID   path      int true "tour ID"
// @Success      200      {object}  domain.Tour
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/{tourID} [get]
func (h *TourHandler) HandleGetTour(ctx *gin.Context) {
	tourID, err := parseUintParam(ctx, "tourID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	tour, err := h.svc.GetTour(ctx.Request.Context(), tourID)
	if err != nil {
		if errors.Is(err, service.ErrTourNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrTourNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetTour -> h.svc.GetTour -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tour)
}

// HandleGetTourBySlug godoc
// @Summary      Get a tour by slug
// @Tags         tours
// @Produce      json
// @Param        slug     path      string true "tour slug"
// @Success      200      {object}  domain.Tour
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/slug/{slug} [get]
func (h *TourHandler) HandleGetTourBySlug(ctx *gin.Context) {
	tour, err := h.svc.GetTourBySlug(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrTourNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrTourNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetTourBySlug -> h.svc.GetTourBySlug -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tour)
}

// HandleCreateTour godoc
// @Summary      Create a tour
// @Tags         tours
// @Security     BearerAuth
// @Produce      json
// @Param        request  body      request.CreateTourRequest true "request body"
// @Success      201      {object}  domain.Tour
// @Failure      400      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours [post]
func (h *TourHandler) HandleCreateTour(ctx *gin.Context) {
	var req request.CreateTourRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	tour, err := h.svc.CreateTour(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		if errors.Is(err, service.ErrDiscountNotBelowPrice) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		if errors.Is(err, service.ErrTourNameExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrTourNameExists))
			return
		}

		err = fmt.Errorf("v1.HandleCreateTour -> h.svc.CreateTour -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, tour)
}

// HandleUpdateTour godoc
// @Summary      Update a tour
// @Tags         tours
// @Security     BearerAuth
// @Produce      json
// @Param        tourID   path      int true "tour ID"
// @Param        request  body      request.UpdateTourRequest true "request body"
// @Success      200      {object}  domain.Tour
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/{tourID} [patch]
func (h *TourHandler) HandleUpdateTour(ctx *gin.Context) {
	tourID, err := parseUintParam(ctx, "tourID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdateTourRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	tour, err := h.svc.UpdateTour(ctx.Request.Context(), tourID, req.ToDomain())
	if err != nil {
		if errors.Is(err, service.ErrTourNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrTourNotFound))
			return
		}
		if errors.Is(err, service.ErrDiscountNotBelowPrice) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateTour -> h.svc.UpdateTour -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tour)
}

// HandleDeleteTour godoc
// @Summary      Delete a tour
// @Tags         tours
// @Security     BearerAuth
// @Produce      json
// @Param        tourID   path      int true "tour ID"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/{tourID} [delete]
func (h *TourHandler) HandleDeleteTour(ctx *gin.Context) {
	tourID, err := parseUintParam(ctx, "tourID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.DeleteTour(ctx.Request.Context(), tourID); err != nil {
		if errors.Is(err, service.ErrTourNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrTourNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteTour -> h.svc.DeleteTour -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleTourStats godoc
// @Summary      Aggregate tour statistics grouped by difficulty
// @Tags         tours
// @Produce      json
// @Success      200      {object}  []domain.TourStats
// @Failure      500      {object}  response.Err
// @Router       /tours/stats [get]
func (h *TourHandler) HandleTourStats(ctx *gin.Context) {
	stats, err := h.svc.GetTourStats(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleTourStats -> h.svc.GetTourStats -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// HandleMonthlyPlan godoc
// @Summary      Departures per month for a given year
// @Tags         tours
// @Security     BearerAuth
// @Produce      json
// @Param        year     path      int true "year"
// @Success      200      {object}  []domain.MonthlyPlanEntry
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/monthly-plan/{year} [get]
func (h *TourHandler) HandleMonthlyPlan(ctx *gin.Context) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil || year <= 0 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid year %q", ctx.Param("year"))))
		return
	}

	plan, err := h.svc.GetMonthlyPlan(ctx.Request.Context(), year)
	if err != nil {
		err = fmt.Errorf("v1.HandleMonthlyPlan -> h.svc.GetMonthlyPlan -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, plan)
}

// HandleToursWithin godoc
// @Summary      Tours starting within a distance of a point
// @Tags         tours
// @Produce      json
// @Param        distance path      number true "radius"
// @Param        latlng   path      string true "center as lat,lng"
// @Param        unit     path      string true "mi or km"
// @Success      200      {object}  []domain.Tour
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/within/{distance}/center/{latlng}/unit/{unit} [get]
func (h *TourHandler) HandleToursWithin(ctx *gin.Context) {
	distance, err := strconv.ParseFloat(ctx.Param("distance"), 64)
	if err != nil || distance < 0 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid distance %q", ctx.Param("distance"))))
		return
	}

	lat, lng, err := parseLatLng(ctx.Param("latlng"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	tours, err := h.svc.FindToursWithin(ctx.Request.Context(), lat, lng, distance, ctx.Param("unit"))
	if err != nil {
		err = fmt.Errorf("v1.HandleToursWithin -> h.svc.FindToursWithin -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tours)
}

// HandleTourDistances godoc
// @Summary      Distance from a point to every tour start, nearest first
// @Tags         tours
// @Produce      json
// @Param        latlng   path      string true "origin as lat,lng"
// @Param        unit     path      string true "mi or km"
// @Success      200      {object}  []domain.TourDistance
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/distances/{latlng}/unit/{unit} [get]
func (h *TourHandler) HandleTourDistances(ctx *gin.Context) {
	lat, lng, err := parseLatLng(ctx.Param("latlng"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	distances, err := h.svc.TourDistances(ctx.Request.Context(), lat, lng, ctx.Param("unit"))
	if err != nil {
		err = fmt.Errorf("v1.HandleTourDistances -> h.svc.TourDistances -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, distances)
}
