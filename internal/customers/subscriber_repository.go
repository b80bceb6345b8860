package customers

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
)

// SubscriberRepository persists newsletter signups.
type SubscriberRepository struct {
	db *gorm.DB
}

// NewSubscriberRepository builds a repository tied to the provided GORM DB.
func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *SubscriberRepository) WithTx(tx *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: tx}
}

// Subscribe upserts the email as an active subscriber. Resubscribing a
// previously unsubscribed address reactivates it.
func (r *SubscriberRepository) Subscribe(ctx context.Context, email string) (*models.Subscriber, error) {
	subscriber := &models.Subscriber{
		Email:  email,
		Status: enums.SubscriberStatusActive,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]any{"status": enums.SubscriberStatusActive}),
	}).Create(subscriber).Error
	if err != nil {
		return nil, err
	}

	var stored models.Subscriber
	if err := r.db.WithContext(ctx).First(&stored, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// Unsubscribe marks the email as unsubscribed if present.
func (r *SubscriberRepository) Unsubscribe(ctx context.Context, email string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("email = ?", email).
		Update("status", enums.SubscriberStatusUnsubscribed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns all subscribers, newest first.
func (r *SubscriberRepository) List(ctx context.Context) ([]models.Subscriber, error) {
	var subscribers []models.Subscriber
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&subscribers).Error; err != nil {
		return nil, err
	}
	return subscribers, nil
}
