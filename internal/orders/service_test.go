package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
	"github.com/movakid/shop-backend/pkg/pagination"
)

type stubRepo struct {
	orders  map[uuid.UUID]*models.Order
	updates int
}

func newStubRepo(orders ...*models.Order) *stubRepo {
	repo := &stubRepo{orders: map[uuid.UUID]*models.Order{}}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	var result []models.Order
	for _, order := range s.orders {
		result = append(result, *order)
	}
	return result, nil, nil
}

func (s *stubRepo) UpdateStatuses(ctx context.Context, order *models.Order) error {
	s.updates++
	s.orders[order.ID] = order
	return nil
}

func (s *stubRepo) UpdatePaymentMethod(ctx context.Context, id uuid.UUID, method enums.PaymentMethod) error {
	order, ok := s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.PaymentMethod = method
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRestocker struct {
	restocked map[uuid.UUID]int
}

func (s *stubRestocker) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if s.restocked == nil {
		s.restocked = map[uuid.UUID]int{}
	}
	s.restocked[id] += qty
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
}

func newTestService(t *testing.T, repo Repository) (Service, *stubRestocker) {
	t.Helper()
	restocker := &stubRestocker{}
	svc, err := NewService(repo, stubTx{}, restocker, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, restocker
}

func newTestOrder(status enums.OrderStatus, paymentStatus enums.PaymentStatus) *models.Order {
	productID := uuid.New()
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "MK2506011234",
		Status:        status,
		PaymentStatus: paymentStatus,
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: &productID, Quantity: 2},
		},
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestMarkPaid(t *testing.T) {
	order := newTestOrder(enums.OrderStatusNew, enums.PaymentStatusPending)
	repo := newStubRepo(order)
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	updated, err := svc.MarkPaid(ctx, order.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if updated.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected payment status paid, got %s", updated.PaymentStatus)
	}
	if updated.Status != enums.OrderStatusPaid {
		t.Fatalf("expected order status advanced to paid, got %s", updated.Status)
	}
	if updated.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	// second call is a no-op
	before := repo.updates
	if _, err := svc.MarkPaid(ctx, order.ID); err != nil {
		t.Fatalf("repeat mark paid: %v", err)
	}
	if repo.updates != before {
		t.Fatalf("expected idempotent no-op, got extra write")
	}
}

func TestMarkPaid_DoesNotAdvanceFulfilledOrders(t *testing.T) {
	order := newTestOrder(enums.OrderStatusProcessing, enums.PaymentStatusFailed)
	svc, _ := newTestService(t, newStubRepo(order))

	updated, err := svc.MarkPaid(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("fulfillment status must not regress, got %s", updated.Status)
	}
	if updated.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected payment status paid, got %s", updated.PaymentStatus)
	}
}

func TestMarkFailed(t *testing.T) {
	order := newTestOrder(enums.OrderStatusNew, enums.PaymentStatusPending)
	repo := newStubRepo(order)
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	updated, err := svc.MarkFailed(ctx, order.ID)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if updated.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", updated.PaymentStatus)
	}
}

func TestMarkFailed_NeverDowngradesPaid(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPaid, enums.PaymentStatusPaid)
	repo := newStubRepo(order)
	svc, _ := newTestService(t, repo)

	updated, err := svc.MarkFailed(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if updated.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("late failure must not downgrade a paid order, got %s", updated.PaymentStatus)
	}
	if repo.updates != 0 {
		t.Fatalf("expected no write for ignored failure event")
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	cases := []struct {
		name    string
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{"paid to processing", enums.OrderStatusPaid, enums.OrderStatusProcessing, true},
		{"processing to shipped", enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{"shipped to completed", enums.OrderStatusShipped, enums.OrderStatusCompleted, true},
		{"new to cancelled", enums.OrderStatusNew, enums.OrderStatusCancelled, true},
		{"new to shipped", enums.OrderStatusNew, enums.OrderStatusShipped, false},
		{"completed to processing", enums.OrderStatusCompleted, enums.OrderStatusProcessing, false},
		{"cancelled to paid", enums.OrderStatusCancelled, enums.OrderStatusPaid, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := newTestOrder(tc.from, enums.PaymentStatusPaid)
			svc, _ := newTestService(t, newStubRepo(order))

			updated, err := svc.UpdateStatus(context.Background(), order.ID, tc.to)
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected transition allowed, got %v", err)
				}
				if updated.Status != tc.to {
					t.Fatalf("expected status %s, got %s", tc.to, updated.Status)
				}
				return
			}
			assertCode(t, err, pkgerrors.CodeStateConflict)
		})
	}
}

func TestUpdateStatus_CancellingPaidOrderRestocks(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPaid, enums.PaymentStatusPaid)
	svc, restocker := newTestService(t, newStubRepo(order))

	if _, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := restocker.restocked[*order.Items[0].ProductID]; got != 2 {
		t.Fatalf("expected 2 units restocked, got %d", got)
	}
}

func TestUpdateStatus_CancellingNewOrderDoesNotRestock(t *testing.T) {
	order := newTestOrder(enums.OrderStatusNew, enums.PaymentStatusPending)
	svc, restocker := newTestService(t, newStubRepo(order))

	if _, err := svc.UpdateStatus(context.Background(), order.ID, enums.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(restocker.restocked) != 0 {
		t.Fatalf("new orders never reserved stock, nothing to restock")
	}
}

func TestSetPaymentMethod(t *testing.T) {
	order := newTestOrder(enums.OrderStatusNew, enums.PaymentStatusPending)
	order.PaymentMethod = enums.PaymentMethodStripe
	svc, _ := newTestService(t, newStubRepo(order))

	updated, err := svc.SetPaymentMethod(context.Background(), order.ID, enums.PaymentMethodPayPal)
	if err != nil {
		t.Fatalf("set payment method: %v", err)
	}
	if updated.PaymentMethod != enums.PaymentMethodPayPal {
		t.Fatalf("expected paypal, got %s", updated.PaymentMethod)
	}
}

func TestSetPaymentMethod_RejectsPaidOrder(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPaid, enums.PaymentStatusPaid)
	svc, _ := newTestService(t, newStubRepo(order))

	_, err := svc.SetPaymentMethod(context.Background(), order.ID, enums.PaymentMethodPayPal)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestGetOrder_NotFound(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())
	_, err := svc.GetOrder(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestMarkPaid_SetsPaidAtFromClock(t *testing.T) {
	order := newTestOrder(enums.OrderStatusNew, enums.PaymentStatusPending)
	repo := newStubRepo(order)
	restocker := &stubRestocker{}
	svc, err := NewService(repo, stubTx{}, restocker, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fixed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	updated, err := svc.MarkPaid(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if updated.PaidAt == nil || !updated.PaidAt.Equal(fixed) {
		t.Fatalf("expected paid_at %s, got %v", fixed, updated.PaidAt)
	}
}
