package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/internal/cart"
	"github.com/movakid/shop-backend/internal/catalog"
	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/db"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/metrics"
)

const (
	stageValidating = "validating"
	stageReserving  = "reserving"
	stagePersisting = "persisting"
	stageConfirming = "confirming"

	maxOrderNumberAttempts = 5
	confirmTimeout         = 10 * time.Second
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type inventory interface {
	LoadProduct(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, id uuid.UUID, qty int) error
}

type customerStore interface {
	UpsertByEmail(ctx context.Context, tx *gorm.DB, customer *models.Customer) (*models.Customer, error)
}

type orderWriter interface {
	Create(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.Order, error)
}

type discountRedeemer interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.DiscountCode, error)
	ConsumeUse(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

// Mailer sends the post-checkout confirmation. Failures are logged and
// never fail the order.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type newsletter interface {
	Subscribe(ctx context.Context, email string) (*models.Subscriber, error)
}

// Input is the validated checkout submission.
type Input struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	PostalCode      string
	City            string
	Country         string
	PaymentMethod   enums.PaymentMethod
	Notes           *string
	NewsletterOptIn bool
}

// Service turns a session cart into a persisted order.
type Service interface {
	Execute(ctx context.Context, c *cart.Cart, input Input) (*models.Order, error)
}

type service struct {
	tx        txRunner
	inventory inventory
	customers customerStore
	orders    orderWriter
	discounts discountRedeemer
	mailer    Mailer
	news      newsletter
	store     config.StoreConfig
	metrics   *metrics.StorefrontMetrics
	logg      *logger.Logger
	now       func() time.Time
	numberFor func(prefix string, at time.Time) string
}

// NewService builds the checkout service. Mailer and newsletter are
// optional; everything else is required.
func NewService(
	tx txRunner,
	inv inventory,
	custs customerStore,
	orders orderWriter,
	discounts discountRedeemer,
	mailer Mailer,
	news newsletter,
	store config.StoreConfig,
	m *metrics.StorefrontMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if custs == nil {
		return nil, fmt.Errorf("customer store required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount redeemer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		inventory: inv,
		customers: custs,
		orders:    orders,
		discounts: discounts,
		mailer:    mailer,
		news:      news,
		store:     store,
		metrics:   m,
		logg:      logg,
		now:       time.Now,
		numberFor: generateOrderNumber,
	}, nil
}

// Execute runs the checkout pipeline. The cart and the catalog are
// re-validated inside a single transaction so concurrent checkouts can
// never oversell, and the confirmation email runs strictly after commit.
func (s *service) Execute(ctx context.Context, c *cart.Cart, input Input) (*models.Order, error) {
	started := s.now()

	if err := s.validate(c, &input); err != nil {
		s.metrics.IncCheckoutFailure(stageValidating)
		return nil, err
	}

	var order *models.Order
	stage := stageReserving
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		stage = stageReserving
		entries, err := s.reserveEntries(ctx, tx, c)
		if err != nil {
			return err
		}

		live := &cart.Cart{Entries: entries}
		subtotal := live.Subtotal()

		var discount *models.DiscountCode
		if c.Discount != nil {
			discount, err = s.discounts.Validate(ctx, c.Discount.Code, subtotal)
			if err != nil {
				return err
			}
			if err := s.discounts.ConsumeUse(ctx, tx, discount.ID); err != nil {
				return err
			}
			live.Discount = &cart.AppliedDiscount{
				Code:  discount.Code,
				Type:  discount.Type,
				Value: discount.Value,
			}
		}

		stage = stagePersisting
		customer, err := s.customers.UpsertByEmail(ctx, tx, buildCustomer(input))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert customer")
		}

		order, err = s.persistOrder(ctx, tx, live, customer, input)
		return err
	})
	if err != nil {
		s.metrics.IncCheckoutFailure(stage)
		return nil, err
	}

	s.metrics.IncOrderCreated()
	s.metrics.ObserveCheckoutDuration(s.now().Sub(started))
	s.confirm(ctx, order, input)
	return order, nil
}

func (s *service) validate(c *cart.Cart, input *Input) error {
	if c.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	required := map[string]*string{
		"first_name":  &input.FirstName,
		"last_name":   &input.LastName,
		"email":       &input.Email,
		"phone":       &input.Phone,
		"address":     &input.Address,
		"postal_code": &input.PostalCode,
		"city":        &input.City,
	}
	var missing []string
	for field, value := range required {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing required customer fields").
			WithDetails(map[string]any{"fields": missing})
	}

	input.Email = strings.ToLower(input.Email)
	if input.Country == "" {
		input.Country = "Polska"
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	return nil
}

// reserveEntries re-fetches every cart product at live prices and takes
// its stock. A conditional decrement losing the race surfaces as a
// state conflict, never as negative stock.
func (s *service) reserveEntries(ctx context.Context, tx *gorm.DB, c *cart.Cart) ([]cart.Entry, error) {
	entries := make([]cart.Entry, 0, len(c.Entries))
	for _, entry := range c.Entries {
		product, err := s.inventory.LoadProduct(ctx, tx, entry.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, productGone(entry)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}
		if product.Status != enums.ProductStatusActive {
			return nil, productGone(entry)
		}

		if err := s.inventory.DecrementStock(ctx, tx, product.ID, entry.Quantity); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
					WithDetails(map[string]any{"sku": product.SKU, "requested": entry.Quantity})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
		}

		entries = append(entries, cart.Entry{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  entry.Quantity,
			Type:      product.Type,
		})
	}
	return entries, nil
}

func productGone(entry cart.Entry) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "product no longer available").
		WithDetails(map[string]any{"sku": entry.SKU})
}

func (s *service) persistOrder(ctx context.Context, tx *gorm.DB, live *cart.Cart, customer *models.Customer, input Input) (*models.Order, error) {
	summary := cart.Summarize(live, s.store)
	address := formatAddress(input)

	order := &models.Order{
		CustomerID:      &customer.ID,
		Status:          enums.OrderStatusNew,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Currency:        s.store.Currency,
		Subtotal:        summary.Subtotal.Round(2),
		DiscountCode:    summary.DiscountCode,
		DiscountAmount:  summary.DiscountAmount.Round(2),
		ShippingCost:    summary.Shipping.Round(2),
		TaxAmount:       summary.Tax.Round(2),
		Total:           summary.Total.Round(2),
		ShippingAddress: address,
		BillingAddress:  address,
		Notes:           input.Notes,
	}
	order.Items = make([]models.OrderItem, 0, len(live.Entries))
	for _, entry := range live.Entries {
		productID := entry.ProductID
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   &productID,
			SKU:         entry.SKU,
			ProductName: entry.Name,
			UnitPrice:   entry.Price.Round(2),
			Quantity:    entry.Quantity,
			Subtotal:    entry.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))).Round(2),
		})
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = s.numberFor(s.store.OrderNumberPrefix, s.now())
		created, err := s.orders.Create(ctx, tx, order)
		if err == nil {
			// Create persists the FK only; the confirmation mailer
			// reads the recipient off the attached customer.
			created.Customer = customer
			return created, nil
		}
		if !db.IsUniqueViolation(err, "orders_order_number") || attempt >= maxOrderNumberAttempts {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
	}
}

func buildCustomer(input Input) *models.Customer {
	return &models.Customer{
		Email:      input.Email,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Phone:      input.Phone,
		Address:    input.Address,
		PostalCode: input.PostalCode,
		City:       input.City,
		Country:    input.Country,
	}
}

func formatAddress(input Input) string {
	return fmt.Sprintf("%s %s, %s, %s %s, %s",
		input.FirstName, input.LastName, input.Address, input.PostalCode, input.City, input.Country)
}

// confirm runs the best-effort post-commit steps. The order is already
// placed, so failures here are logged and swallowed.
func (s *service) confirm(ctx context.Context, order *models.Order, input Input) {
	confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer cancel()

	logCtx := s.logg.WithOrderNumber(confirmCtx, order.OrderNumber)
	if s.mailer != nil {
		if err := s.mailer.SendOrderConfirmation(confirmCtx, order); err != nil {
			s.metrics.IncCheckoutFailure(stageConfirming)
			s.logg.Error(logCtx, "order confirmation email failed", err)
		}
	}
	if input.NewsletterOptIn && s.news != nil {
		if _, err := s.news.Subscribe(confirmCtx, input.Email); err != nil {
			s.logg.Error(logCtx, "newsletter signup failed", err)
		}
	}
	s.logg.Info(logCtx, "order placed")
}
