package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/movakid/shop-backend/pkg/enums"
)

// Subscriber is a newsletter signup, upserted by email.
type Subscriber struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string                 `gorm:"column:email;not null;uniqueIndex"`
	Status    enums.SubscriberStatus `gorm:"column:status;type:subscriber_status;not null;default:'active'"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
