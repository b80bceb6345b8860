package discounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/db/models"
)

// Repository wires together discount code persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByCode loads a discount code by its unique code string.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	if err := r.db.WithContext(ctx).First(&discount, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

// FindByID loads a discount code by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	if err := r.db.WithContext(ctx).First(&discount, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

// List returns all discount codes, newest first.
func (r *Repository) List(ctx context.Context) ([]models.DiscountCode, error) {
	var codes []models.DiscountCode
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Create persists a new discount code.
func (r *Repository) Create(ctx context.Context, discount *models.DiscountCode) (*models.DiscountCode, error) {
	if err := r.db.WithContext(ctx).Create(discount).Error; err != nil {
		return nil, err
	}
	return discount, nil
}

// Update saves all mutable discount columns.
func (r *Repository) Update(ctx context.Context, discount *models.DiscountCode) (*models.DiscountCode, error) {
	if err := r.db.WithContext(ctx).Save(discount).Error; err != nil {
		return nil, err
	}
	return discount, nil
}

// Delete removes a discount code.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.DiscountCode{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ErrUsageExhausted signals a conditional use increment that found the
// cap already reached.
var ErrUsageExhausted = errors.New("discount usage limit reached")

// ConsumeUse atomically advances uses_count, respecting max_uses when
// set. Safe under concurrent checkouts redeeming the same code.
func (r *Repository) ConsumeUse(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.DiscountCode{}).
		Where("id = ? AND (max_uses IS NULL OR uses_count < max_uses)", id).
		UpdateColumn("uses_count", gorm.Expr("uses_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUsageExhausted
	}
	return nil
}
