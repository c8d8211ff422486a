package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trailpost/tours-api/internal/api/handler/v1/request"
	"github.com/trailpost/tours-api/internal/api/handler/v1/response"
	"github.com/trailpost/tours-api/internal/domain"
	"github.com/trailpost/tours-api/internal/payment"
	"github.com/trailpost/tours-api/internal/service"
)

type BookingService interface {
	CreateCheckoutSession(ctx context.Context, tourID uint, user domain.User) (payment.CheckoutSession, error)
	CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	GetBooking(ctx context.Context, id uint) (domain.Booking, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	ListBookingsForUser(ctx context.Context, userID uint) ([]domain.Booking, error)
	ListBookingsForTour(ctx context.Context, tourID uint) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, id uint, paid *bool, price *float64) (domain.Booking, error)
	DeleteBooking(ctx context.Context, id uint) error
	ListFavorites(ctx context.Context, userID uint) ([]domain.Tour, error)
	AddToFavorites(ctx context.Context, userID, tourID uint) error
	RemoveFromFavorites(ctx context.Context, userID, tourID uint) error
}

type BookingHandler struct {
	svc BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{
		svc: svc,
	}
}

// HandleCreateCheckoutSession godoc
// @Summary      Start a payment checkout for a tour
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        tourID   path      int true "tour ID"
// @Success      200      {object}  response.CheckoutSessionResponse
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/{tourID}/checkout [post]
func (h *BookingHandler) HandleCreateCheckoutSession(ctx *gin.Context) {
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

	session, err := h.svc.CreateCheckoutSession(ctx.Request.Context(), tourID, user)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateBooking) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrDuplicateBooking))
			return
		}
		if errors.Is(err, service.ErrTourNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrTourNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleCreateCheckoutSession -> h.svc.CreateCheckoutSession -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.CheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	})
}

// HandleMyBookings godoc
// @Summary      List bookings of the logged in user
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200      {object}  []domain.Booking
// @Failure      500      {object}  response.Err
// @Router       /bookings/me [get]
func (h *BookingHandler) HandleMyBookings(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	bookings, err := h.svc.ListBookingsForUser(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleMyBookings -> h.svc.ListBookingsForUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}

// HandleUserBookings godoc
// @Summary      List bookings of a given user
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        userID   path      int true "user ID"
// @Success      200      {object}  []domain.Booking
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /users/{userID}/bookings [get]
func (h *BookingHandler) HandleUserBookings(ctx *gin.Context) {
	userID, err := parseUintParam(ctx, "userID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	bookings, err := h.svc.ListBookingsForUser(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleUserBookings -> h.svc.ListBookingsForUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}

// HandleListBookings godoc
// @Summary      List all bookings, optionally filtered by tour
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        tour_id  query     int false "filter by tour ID"
// @Success      200      {object}  []domain.Booking
// @Failure      500      {object}  response.Err
// @Router       /bookings [get]
func (h *BookingHandler) HandleListBookings(ctx *gin.Context) {
	var (
		bookings []domain.Booking
		err      error
	)

	if raw := ctx.Query("tour_id"); raw != "" {
		tourID, convErr := strconv.ParseUint(raw, 10, 64)
		if convErr != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid tour_id %q", raw)))
			return
		}
		bookings, err = h.svc.ListBookingsForTour(ctx.Request.Context(), uint(tourID))
	} else {
		bookings, err = h.svc.ListBookings(ctx.Request.Context())
	}

	if err != nil {
		err = fmt.Errorf("v1.HandleListBookings -> h.svc.ListBookings -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, bookings)
}

// HandleCreateBooking godoc
// @Summary      Create a booking directly
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        request  body      request.CreateBookingRequest true "request body"
// @Success      201      {object}  domain.Booking
// @Failure      400      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /bookings [post]
func (h *BookingHandler) HandleCreateBooking(ctx *gin.Context) {
	var req request.CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	booking, err := h.svc.CreateBooking(ctx.Request.Context(), domain.Booking{
		TourID: req.TourID,
		UserID: req.UserID,
		Price:  req.Price,
		Paid:   req.Paid,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateBooking) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrDuplicateBooking))
			return
		}
		if errors.Is(err, service.ErrTourNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrTourNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleCreateBooking -> h.svc.CreateBooking -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, booking)
}

// HandleGetBooking godoc
// @Summary      Get a booking by id
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID path     int true "booking ID"
// @Success      200      {object}  domain.Booking
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /bookings/{bookingID} [get]
func (h *BookingHandler) HandleGetBooking(ctx *gin.Context) {
	bookingID, err := parseUintParam(ctx, "bookingID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	booking, err := h.svc.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrBookingNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetBooking -> h.svc.GetBooking -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, booking)
}

// HandleUpdateBooking godoc
// @Summary      Update a booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID path     int true "booking ID"
// @Param        request  body      request.UpdateBookingRequest true "request body"
// @Success      200      {object}  domain.Booking
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /bookings/{bookingID} [patch]
func (h *BookingHandler) HandleUpdateBooking(ctx *gin.Context) {
	bookingID, err := parseUintParam(ctx, "bookingID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	booking, err := h.svc.UpdateBooking(ctx.Request.Context(), bookingID, req.Paid, req.Price)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrBookingNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleUpdateBooking -> h.svc.UpdateBooking -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, booking)
}

// HandleDeleteBooking godoc
// @Summary      Delete a booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID path     int true "booking ID"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /bookings/{bookingID} [delete]
func (h *BookingHandler) HandleDeleteBooking(ctx *gin.Context) {
	bookingID, err := parseUintParam(ctx, "bookingID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.DeleteBooking(ctx.Request.Context(), bookingID); err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrBookingNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteBooking -> h.svc.DeleteBooking -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleListFavorites godoc
// @Summary      List the favorite tours of the logged in user
// @Tags         favorites
// @Security     BearerAuth
// @Produce      json
// @Success      200      {object}  []domain.Tour
// @Failure      500      {object}  response.Err
// @Router       /users/me/favorites [get]
func (h *BookingHandler) HandleListFavorites(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		response.RenderErr(ctx, response.ErrUnauthorized(errors.New("you are not logged in")))
		return
	}

	favorites, err := h.svc.ListFavorites(ctx.Request.Context(), user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleListFavorites -> h.svc.ListFavorites -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, favorites)
}

// HandleAddFavorite godoc
// @Summary      Mark a booked tour as favorite
// @Tags         favorites
// @Security     BearerAuth
// @Produce      json
// @Param        tourID   path      int true "tour ID"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/{tourID}/favorites [patch]
func (h *BookingHandler) HandleAddFavorite(ctx *gin.Context) {
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

	if err := h.svc.AddToFavorites(ctx.Request.Context(), user.ID, tourID); err != nil {
		if errors.Is(err, service.ErrNotBooked) {
			response.RenderErr(ctx, response.ErrForbidden(service.ErrNotBooked))
			return
		}
		if errors.Is(err, service.ErrAlreadyFavorite) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrAlreadyFavorite))
			return
		}

		err = fmt.Errorf("v1.HandleAddFavorite -> h.svc.AddToFavorites -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleRemoveFavorite godoc
// @Summary      Remove a tour from the favorites
// @Tags         favorites
// @Security     BearerAuth
// @Produce      json
// @Param        tourID   path      int true "tour ID"
// @Success      204
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /tours/{tourID}/favorites [delete]
func (h *BookingHandler) HandleRemoveFavorite(ctx *gin.Context) {
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

	if err := h.svc.RemoveFromFavorites(ctx.Request.Context(), user.ID, tourID); err != nil {
		if errors.Is(err, service.ErrNotFavorite) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrNotFavorite))
			return
		}

		err = fmt.Errorf("v1.HandleRemoveFavorite -> h.svc.RemoveFromFavorites -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
