package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/movakid/shop-backend/pkg/paypal"
)

// PayPalProvider starts PayPal Orders v2 approval flows.
type PayPalProvider struct {
	client *paypal.Client
}

// NewPayPalProvider wraps the configured PayPal client.
func NewPayPalProvider(client *paypal.Client) (*PayPalProvider, error) {
	if client == nil {
		return nil, errors.New("paypal client required")
	}
	return &PayPalProvider{client: client}, nil
}

// CreateSession creates a CAPTURE-intent order referenced by our order
// id and returns the buyer approval link.
func (p *PayPalProvider) CreateSession(ctx context.Context, session Session) (string, error) {
	order, err := p.client.CreateOrder(ctx, paypal.OrderRequest{
		ReferenceID: session.OrderID.String(),
		AmountMinor: session.AmountMinor,
		Currency:    session.Currency,
		Description: fmt.Sprintf("Order %s", session.OrderNumber),
		ReturnURL:   session.SuccessURL,
		CancelURL:   session.CancelURL,
	})
	if err != nil {
		return "", err
	}
	return order.ApproveURL()
}
