package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	"github.com/movakid/shop-backend/pkg/pagination"
)

// ListFilter narrows order listings for the back office.
type ListFilter struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	CustomerEmail *string
}

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	UpdateStatuses(ctx context.Context, order *models.Order) error
	UpdatePaymentMethod(ctx context.Context, id uuid.UUID, method enums.PaymentMethod) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// Create persists the order together with its line items.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads the order with its items and customer.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber loads the order with its items by public number.
func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders matching the filter using cursor pagination,
// newest first.
func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.CustomerEmail != nil {
		query = query.Joins("JOIN customers ON customers.id = orders.customer_id").
			Where("customers.email = ?", *filter.CustomerEmail)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(orders.created_at, orders.id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.Order
	err = query.Order("orders.created_at DESC, orders.id DESC").
		Limit(limit + 1).
		Find(&orders).Error
	if err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return orders, next, nil
}

// UpdatePaymentMethod records the method chosen on the payment page.
func (r *repository) UpdatePaymentMethod(ctx context.Context, id uuid.UUID, method enums.PaymentMethod) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_method", method).Error
}

// UpdateStatuses writes the order and payment status columns.
func (r *repository) UpdateStatuses(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
			"paid_at":        order.PaidAt,
		}).Error
}
