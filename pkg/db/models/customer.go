package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a storefront buyer, keyed by email. Guest checkout
// upserts into this table so repeat buyers share one record.
type Customer struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email      string    `gorm:"column:email;not null;uniqueIndex"`
	FirstName  string    `gorm:"column:first_name;not null"`
	LastName   string    `gorm:"column:last_name;not null"`
	Phone      string    `gorm:"column:phone;not null"`
	Address    string    `gorm:"column:address;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	City       string    `gorm:"column:city;not null"`
	Country    string    `gorm:"column:country;not null;default:'Polska'"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
