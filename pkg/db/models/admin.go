package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/movakid/shop-backend/pkg/enums"
)

// Admin is a back-office account. PasswordHash holds an argon2id digest.
type Admin struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Name         string          `gorm:"column:name;not null"`
	Role         enums.AdminRole `gorm:"column:role;type:admin_role;not null;default:'editor'"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
