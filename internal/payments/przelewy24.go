package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/movakid/shop-backend/pkg/przelewy24"
)

// P24Provider registers Przelewy24 transactions. The order id doubles
// as the P24 session id so status callbacks map straight back.
type P24Provider struct {
	client    *przelewy24.Client
	statusURL string
}

// NewP24Provider wraps the configured P24 client. statusURL is the
// public webhook endpoint P24 posts payment notifications to.
func NewP24Provider(client *przelewy24.Client, statusURL string) (*P24Provider, error) {
	if client == nil {
		return nil, errors.New("przelewy24 client required")
	}
	if statusURL == "" {
		return nil, errors.New("status url required")
	}
	return &P24Provider{client: client, statusURL: statusURL}, nil
}

func (p *P24Provider) CreateSession(ctx context.Context, session Session) (string, error) {
	return p.client.RegisterTransaction(ctx, przelewy24.TransactionRequest{
		SessionID:   session.OrderID.String(),
		AmountMinor: session.AmountMinor,
		Currency:    session.Currency,
		Description: fmt.Sprintf("Order %s", session.OrderNumber),
		Email:       session.CustomerEmail,
		Country:     "PL",
		Language:    "pl",
		URLReturn:   session.SuccessURL,
		URLStatus:   p.statusURL,
	})
}
