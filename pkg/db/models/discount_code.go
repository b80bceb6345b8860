package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/pkg/enums"
)

// DiscountCode is a redeemable promotion. UsesCount is only ever
// advanced by the conditional increment in the discounts repo.
type DiscountCode struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string               `gorm:"column:code;not null;uniqueIndex"`
	Type          enums.DiscountType   `gorm:"column:type;type:discount_type;not null"`
	Value         decimal.Decimal      `gorm:"column:value;type:numeric(10,2);not null"`
	MinOrderValue decimal.Decimal      `gorm:"column:min_order_value;type:numeric(10,2);not null;default:0"`
	MaxUses       *int                 `gorm:"column:max_uses"`
	UsesCount     int                  `gorm:"column:uses_count;not null;default:0"`
	StartDate     *time.Time           `gorm:"column:start_date"`
	EndDate       *time.Time           `gorm:"column:end_date"`
	Status        enums.DiscountStatus `gorm:"column:status;type:discount_status;not null;default:'active'"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
