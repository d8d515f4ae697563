// Package gateway opens hosted Stripe Checkout sessions for backend-issued orders.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"jeffjackson/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// StripeCheckout opens hosted checkout pages. The payer's email is
// prefilled and the backend order id travels in the session metadata.
type StripeCheckout struct {
	api        *client.API
	successURL string
	cancelURL  string
	logger     *zap.Logger
}

// Config configures the checkout opener.
type Config struct {
	SecretKey  string
	APIURL     string // overrides the Stripe API host, used in tests
	SuccessURL string
	CancelURL  string
}

func NewStripeCheckout(cfg Config, logger *zap.Logger) *StripeCheckout {
	if logger == nil {
		logger = zap.NewNop()
	}
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.APIURL, "/"))
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackend(stripe.ConnectBackend),
		Uploads: stripe.GetBackend(stripe.UploadsBackend),
	}
	return &StripeCheckout{
		api:        client.New(cfg.SecretKey, backends),
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     logger,
	}
}

// Open creates a Checkout Session charging order.MinorUnits in order.Currency.
func (s *StripeCheckout) Open(ctx context.Context, order models.GatewayOrder, description string) (models.GatewayOrder, error) {
	if order.OrderID == "" {
		return order, errors.New("gateway: order id is required")
	}
	if order.MinorUnits <= 0 {
		return order, fmt.Errorf("gateway: invalid amount %d", order.MinorUnits)
	}
	if strings.TrimSpace(description) == "" {
		description = "DJ booking deposit"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(withOrder(s.successURL, order.OrderID)),
		CancelURL:         stripe.String(withOrder(s.cancelURL, order.OrderID)),
		ClientReferenceID: stripe.String(order.OrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(order.Currency),
					UnitAmount: stripe.Int64(order.MinorUnits),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if order.Payer.Email != "" {
		params.CustomerEmail = stripe.String(order.Payer.Email)
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.OrderID)
	params.AddMetadata("payment_type", string(order.PaymentType))
	if order.Reference != "" {
		params.AddMetadata("booking_reference", order.Reference)
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return order, fmt.Errorf("gateway: create checkout session: %w", err)
	}
	if sess.URL == "" {
		return order, errors.New("gateway: checkout session has no url")
	}
	s.logger.Info("Hosted checkout opened",
		zap.String("orderId", order.OrderID),
		zap.String("checkoutSession", sess.ID),
		zap.Int64("minorUnits", order.MinorUnits))

	order.CheckoutURL = sess.URL
	order.SessionRef = sess.ID
	return order, nil
}

// withOrder appends the escaped order id so the return page can post the
// callback. The base is left as configured.
func withOrder(base, orderID string) string {
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + url.Values{"order_id": {orderID}}.Encode()
}
