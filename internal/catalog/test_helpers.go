package catalog

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
)

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:     uuid.New(),
		SKU:    fmt.Sprintf("MK-TEST-%s", uuid.NewString()[:8]),
		Name:   "Test Sphere",
		Price:  decimal.RequireFromString("59.99"),
		Stock:  stock,
		Type:   enums.ProductTypeSphere,
		Status: enums.ProductStatusActive,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func configForTest() config.StoreConfig {
	return config.StoreConfig{
		Currency:        "EUR",
		SphereLimit:     100,
		DualsphereLimit: 50,
	}
}
