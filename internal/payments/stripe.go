package payments

import (
	"context"
	"errors"
	"fmt"

	stripesdk "github.com/stripe/stripe-go/v84"

	"github.com/movakid/shop-backend/pkg/stripe"
)

// StripeProvider starts hosted Stripe Checkout sessions.
type StripeProvider struct {
	client *stripe.Client
}

// NewStripeProvider wraps the configured Stripe client.
func NewStripeProvider(client *stripe.Client) (*StripeProvider, error) {
	if client == nil {
		return nil, errors.New("stripe client required")
	}
	return &StripeProvider{client: client}, nil
}

// CreateSession creates a single-line-item checkout session carrying
// the order id in metadata so the webhook can route the event back.
func (p *StripeProvider) CreateSession(ctx context.Context, session Session) (string, error) {
	params := &stripesdk.CheckoutSessionCreateParams{
		Mode:          stripesdk.String(string(stripesdk.CheckoutSessionModePayment)),
		SuccessURL:    stripesdk.String(session.SuccessURL),
		CancelURL:     stripesdk.String(session.CancelURL),
		CustomerEmail: stripesdk.String(session.CustomerEmail),
		LineItems: []*stripesdk.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripesdk.Int64(1),
				PriceData: &stripesdk.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripesdk.String(session.Currency),
					UnitAmount: stripesdk.Int64(session.AmountMinor),
					ProductData: &stripesdk.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripesdk.String(fmt.Sprintf("Order %s", session.OrderNumber)),
					},
				},
			},
		},
	}
	params.AddMetadata("order_id", session.OrderID.String())
	params.AddMetadata("order_number", session.OrderNumber)

	created, err := p.client.API().V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create stripe checkout session: %w", err)
	}
	if created.URL == "" {
		return "", errors.New("stripe checkout session has no redirect url")
	}
	return created.URL, nil
}
