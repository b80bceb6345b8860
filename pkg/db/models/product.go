package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/pkg/enums"
)

// Product represents a storefront catalog entry.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string              `gorm:"column:sku;not null;uniqueIndex"`
	Name        string              `gorm:"column:name;not null"`
	Description *string             `gorm:"column:description"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(10,2);not null"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	Type        enums.ProductType   `gorm:"column:type;type:product_type;not null"`
	Status      enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'active'"`
	ImageURL    *string             `gorm:"column:image_url"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock reports whether at least qty units remain.
func (p *Product) InStock(qty int) bool {
	return p.Stock >= qty
}
