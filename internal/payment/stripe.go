// Package payment wraps the Stripe checkout-session and webhook APIs.
package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/trailpost/tours-api/internal/domain"
)

var ErrInvalidWebhook = errors.New("invalid webhook payload")

type Config struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
}

// CheckoutSession is the handle returned to the client, which redirects the
// browser to URL to complete payment.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout is the payment event the booking service consumes: the
// tour reference travels in the session's client reference id, the user is
// identified by the payer email, and the paid price comes from the session
// total (cents).
type CompletedCheckout struct {
	TourID      uint
	PayerEmail  string
	AmountTotal int64
}

type StripeGateway struct {
	conf *Config
}

func NewStripeGateway(conf *Config) *StripeGateway {
	stripe.Key = conf.SecretKey

	return &StripeGateway{
		conf: conf,
	}
}

func (g *StripeGateway) CreateCheckoutSession(tour domain.Tour, customerEmail string) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(g.conf.SuccessURL),
		CancelURL:          stripe.String(fmt.Sprintf("%s/tour/%s", g.conf.CancelURL, tour.Slug)),
		CustomerEmail:      stripe.String(customerEmail),
		ClientReferenceID:  stripe.String(strconv.FormatUint(uint64(tour.ID), 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(int64(tour.Price * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(tour.Name + " Tour"),
						Description: stripe.String(tour.Summary),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}

	created, err := session.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("session.New -> %w", err)
	}

	return CheckoutSession{
		ID:  created.ID,
		URL: created.URL,
	}, nil
}

// ParseWebhookEvent verifies the signature and extracts the completed checkout
// if the event is a checkout.session.completed. ok is false for event types we
// do not act on.
func (g *StripeGateway) ParseWebhookEvent(payload []byte, signature string) (checkout CompletedCheckout, ok bool, err error) {
	event, err := webhook.ConstructEvent(payload, signature, g.conf.WebhookSecret)
	if err != nil {
		return CompletedCheckout{}, false, fmt.Errorf("%w -> %w", ErrInvalidWebhook, err)
	}

	if event.Type != "checkout.session.completed" {
		return CompletedCheckout{}, false, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return CompletedCheckout{}, false, fmt.Errorf("%w -> %w", ErrInvalidWebhook, err)
	}

	tourID, err := strconv.ParseUint(sess.ClientReferenceID, 10, 64)
	if err != nil {
		return CompletedCheckout{}, false, fmt.Errorf("%w -> bad client reference id %q", ErrInvalidWebhook, sess.ClientReferenceID)
	}

	email := sess.CustomerEmail
	if email == "" && sess.CustomerDetails != nil {
		email = sess.CustomerDetails.Email
	}

	return CompletedCheckout{
		TourID:      uint(tourID),
		PayerEmail:  email,
		AmountTotal: sess.AmountTotal,
	}, true, nil
}
