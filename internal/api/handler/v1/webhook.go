package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trailpost/tours-api/internal/api/handler/v1/response"
	"github.com/trailpost/tours-api/internal/payment"
)

type WebhookGateway interface {
	ParseWebhookEvent(payload []byte, signature string) (checkout payment.CompletedCheckout, ok bool, err error)
}

type WebhookBookingService interface {
	ConfirmBookingFromPayment(ctx context.Context, checkout payment.CompletedCheckout) error
}

type WebhookHandler struct {
	gateway WebhookGateway
	svc     WebhookBookingService
}

func NewWebhookHandler(gateway WebhookGateway, svc WebhookBookingService) *WebhookHandler {
	return &WebhookHandler{
		gateway: gateway,
		svc:     svc,
	}
}

// HandleStripeWebhook godoc
// @Summary      Receive checkout events from the payment provider
// @Tags         webhooks
// @Produce      json
// @Success      200      {object}  response.MessageResponse
// @Failure      400      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(ctx *gin.Context) {
	payload, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("failed to read the payload -> %w", err)))
		return
	}

	checkout, ok, err := h.gateway.ParseWebhookEvent(payload, ctx.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidWebhook) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleStripeWebhook -> h.gateway.ParseWebhookEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	// Acknowledge event types we do not act on so they are not redelivered.
	if !ok {
		ctx.JSON(http.StatusOK, response.MessageResponse{Message: "ignored"})
		return
	}

	if err := h.svc.ConfirmBookingFromPayment(ctx.Request.Context(), checkout); err != nil {
		err = fmt.Errorf("v1.HandleStripeWebhook -> h.svc.ConfirmBookingFromPayment -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.MessageResponse{Message: "received"})
}
