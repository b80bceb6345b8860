package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/pkg/enums"
)

// Order is a placed checkout with immutable totals. Customer deletion
// keeps the order and nulls the reference.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	Customer        *Customer           `gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'new'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	Currency        string              `gorm:"column:currency;not null;default:'EUR'"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DiscountCode    *string             `gorm:"column:discount_code"`
	DiscountAmount  decimal.Decimal     `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	ShippingCost    decimal.Decimal     `gorm:"column:shipping_cost;type:numeric(10,2);not null"`
	TaxAmount       decimal.Decimal     `gorm:"column:tax_amount;type:numeric(10,2);not null"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	ShippingAddress string              `gorm:"column:shipping_address;not null"`
	BillingAddress  string              `gorm:"column:billing_address;not null"`
	Notes           *string             `gorm:"column:notes"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
