package payments

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/metrics"
)

// EventKind is the payment outcome carried by a verified webhook event.
type EventKind string

const (
	EventPaid   EventKind = "paid"
	EventFailed EventKind = "failed"
)

// Event is a verified, provider-agnostic payment notification.
type Event struct {
	Provider string
	ID       string
	OrderID  uuid.UUID
	Kind     EventKind
}

type orderTransitions interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SetPaymentMethod(ctx context.Context, id uuid.UUID, method enums.PaymentMethod) (*models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// EventGuard deduplicates provider event deliveries.
type EventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Service starts payments and applies verified provider events.
type Service interface {
	Init(ctx context.Context, orderID uuid.UUID, method enums.PaymentMethod) (*InitResult, error)
	HandleEvent(ctx context.Context, event Event) error
}

type service struct {
	orders    orderTransitions
	providers map[enums.PaymentMethod]Provider
	guards    map[string]EventGuard
	bank      config.BankTransferConfig
	baseURL   string
	metrics   *metrics.StorefrontMetrics
	logg      *logger.Logger
}

// NewService builds the payment service. Providers and guards may be
// partial; methods without a registered provider fail at init time
// with a dependency error.
func NewService(
	orders orderTransitions,
	providers map[enums.PaymentMethod]Provider,
	guards map[string]EventGuard,
	bank config.BankTransferConfig,
	baseURL string,
	m *metrics.StorefrontMetrics,
	logg *logger.Logger,
) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order transitions required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if providers == nil {
		providers = map[enums.PaymentMethod]Provider{}
	}
	if guards == nil {
		guards = map[string]EventGuard{}
	}
	return &service{
		orders:    orders,
		providers: providers,
		guards:    guards,
		bank:      bank,
		baseURL:   strings.TrimRight(baseURL, "/"),
		metrics:   m,
		logg:      logg,
	}, nil
}

// Init records the chosen method on the order and starts the provider
// flow. Bank transfers skip the redirect and return wire instructions.
func (s *service) Init(ctx context.Context, orderID uuid.UUID, method enums.PaymentMethod) (*InitResult, error) {
	order, err := s.orders.SetPaymentMethod(ctx, orderID, method)
	if err != nil {
		return nil, err
	}

	if method == enums.PaymentMethodBankTransfer {
		return &InitResult{Instructions: s.bankInstructions(order)}, nil
	}

	provider, ok := s.providers[method]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("payment provider %s is not configured", method))
	}

	redirect, err := provider.CreateSession(ctx, Session{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		AmountMinor:   order.Total.Shift(2).IntPart(),
		Currency:      order.Currency,
		SuccessURL:    s.returnURL(method, order.OrderNumber, false),
		CancelURL:     s.returnURL(method, order.OrderNumber, true),
		CustomerEmail: customerEmail(order),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
			fmt.Sprintf("start %s payment", method))
	}
	return &InitResult{RedirectURL: redirect}, nil
}

// HandleEvent applies a verified webhook event. Duplicate deliveries
// are acknowledged without touching the order.
func (s *service) HandleEvent(ctx context.Context, event Event) error {
	if event.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event order id required")
	}

	guard := s.guards[event.Provider]
	if guard != nil {
		duplicate, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency check")
		}
		if duplicate {
			s.metrics.IncPaymentEvent(event.Provider, "duplicate")
			return nil
		}
	}

	var err error
	switch event.Kind {
	case EventPaid:
		_, err = s.orders.MarkPaid(ctx, event.OrderID)
	case EventFailed:
		_, err = s.orders.MarkFailed(ctx, event.OrderID)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown payment event kind %q", event.Kind))
	}
	if err != nil {
		if guard != nil {
			if delErr := guard.Delete(ctx, event.ID); delErr != nil {
				s.logg.Error(ctx, "release webhook idempotency key", delErr)
			}
		}
		s.metrics.IncPaymentEvent(event.Provider, "error")
		return err
	}

	s.metrics.IncPaymentEvent(event.Provider, string(event.Kind))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"provider": event.Provider,
		"event_id": event.ID,
		"result":   string(event.Kind),
	}), "payment event applied")
	return nil
}

func (s *service) bankInstructions(order *models.Order) *BankTransferInstructions {
	return &BankTransferInstructions{
		AccountHolder: s.bank.AccountHolder,
		IBAN:          s.bank.IBAN,
		BIC:           s.bank.BIC,
		Title:         order.OrderNumber,
		Amount:        order.Total.StringFixed(2),
		Currency:      order.Currency,
	}
}

// returnURL routes the shopper back through the API return endpoint,
// which settles provider-specific return work and forwards to the
// storefront result page.
func (s *service) returnURL(method enums.PaymentMethod, orderNumber string, cancel bool) string {
	u := fmt.Sprintf("%s/api/v1/payments/return/%s?order=%s", s.baseURL, method, url.QueryEscape(orderNumber))
	if cancel {
		u += "&cancel=true"
	}
	return u
}

func customerEmail(order *models.Order) string {
	if order.Customer != nil {
		return order.Customer.Email
	}
	return ""
}
