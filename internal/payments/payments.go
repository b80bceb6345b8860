package payments

import (
	"context"

	"github.com/google/uuid"
)

// Session carries everything a provider needs to start a payment for
// an order. AmountMinor is the order total in minor units (cents).
type Session struct {
	OrderID       uuid.UUID
	OrderNumber   string
	AmountMinor   int64
	Currency      string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
}

// Provider starts a hosted payment flow and returns the URL the
// shopper is redirected to.
type Provider interface {
	CreateSession(ctx context.Context, session Session) (string, error)
}

// BankTransferInstructions is the static payload returned instead of a
// redirect when the shopper picks a manual transfer.
type BankTransferInstructions struct {
	AccountHolder string `json:"account_holder"`
	IBAN          string `json:"iban"`
	BIC           string `json:"bic"`
	Title         string `json:"title"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// InitResult is the outcome of starting a payment. Exactly one of
// RedirectURL or Instructions is set.
type InitResult struct {
	RedirectURL  string                    `json:"redirect_url,omitempty"`
	Instructions *BankTransferInstructions `json:"instructions,omitempty"`
}
