package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/pagination"
)

// fulfillmentTransitions lists the allowed admin-driven status moves.
// Payment-driven moves (new -> paid) go through MarkPaid instead.
var fulfillmentTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew:        {enums.OrderStatusCancelled},
	enums.OrderStatusPaid:       {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusCompleted},
}

type stockRestocker interface {
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order reads and lifecycle transitions.
type Service interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	SetPaymentMethod(ctx context.Context, id uuid.UUID, method enums.PaymentMethod) (*models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog stockRestocker
	logg    *logger.Logger
	now     func() time.Time
}

// NewService constructs an order service instance.
func NewService(repo Repository, tx txRunner, catalog stockRestocker, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog, logg: logg, now: time.Now}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	orders, next, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return orders, next, nil
}

// UpdateStatus applies an admin-driven fulfillment transition.
// Cancelling a paid or processing order restocks its items.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", next))
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.Status == next {
		return order, nil
	}
	if !transitionAllowed(order.Status, next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, next))
	}

	restock := next == enums.OrderStatusCancelled && order.Status != enums.OrderStatusNew

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order.Status = next
		if err := s.repo.WithTx(tx).UpdateStatuses(ctx, order); err != nil {
			return err
		}
		if restock {
			for _, item := range order.Items {
				if item.ProductID == nil {
					continue
				}
				if err := s.catalog.IncrementStock(ctx, *item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	return order, nil
}

// SetPaymentMethod records the provider the shopper picked. Paid
// orders keep the method that actually settled them.
func (s *service) SetPaymentMethod(ctx context.Context, id uuid.UUID, method enums.PaymentMethod) (*models.Order, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid")
	}
	if order.PaymentMethod != method {
		if err := s.repo.UpdatePaymentMethod(ctx, id, method); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set payment method")
		}
		order.PaymentMethod = method
	}
	return order, nil
}

// MarkPaid records a confirmed payment. Re-marking a paid order is a
// no-op, so webhook retries and return redirects can race safely.
func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		return order, nil
	}
	if order.PaymentStatus == enums.PaymentStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has been refunded")
	}

	now := s.now()
	order.PaymentStatus = enums.PaymentStatusPaid
	order.PaidAt = &now
	if order.Status == enums.OrderStatusNew {
		order.Status = enums.OrderStatusPaid
	}

	if err := s.repo.UpdateStatuses(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
	}
	s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "order marked paid")
	return order, nil
}

// MarkFailed records a failed payment attempt. Paid orders are never
// downgraded by late failure events.
func (s *service) MarkFailed(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	switch order.PaymentStatus {
	case enums.PaymentStatusPaid, enums.PaymentStatusRefunded:
		return order, nil
	case enums.PaymentStatusFailed:
		return order, nil
	}

	order.PaymentStatus = enums.PaymentStatusFailed
	if err := s.repo.UpdateStatuses(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order failed")
	}
	return order, nil
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range fulfillmentTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
