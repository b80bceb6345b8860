package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
)

func TestValidateCreateInput(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		input := CreateProductInput{
			SKU:   "  MK-SPH-001  ",
			Name:  " MovaKid Sphere ",
			Price: decimal.RequireFromString("59.99"),
			Stock: 10,
			Type:  enums.ProductTypeSphere,
		}
		if err := validateCreateInput(&input); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if input.SKU != "MK-SPH-001" {
			t.Fatalf("expected trimmed sku, got %q", input.SKU)
		}
		if input.Status != enums.ProductStatusActive {
			t.Fatalf("expected default status active, got %s", input.Status)
		}
	})

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing sku", CreateProductInput{Name: "x", Type: enums.ProductTypeSphere}},
		{"missing name", CreateProductInput{SKU: "x", Type: enums.ProductTypeSphere}},
		{"negative price", CreateProductInput{SKU: "x", Name: "x", Price: decimal.RequireFromString("-1"), Type: enums.ProductTypeSphere}},
		{"negative stock", CreateProductInput{SKU: "x", Name: "x", Stock: -1, Type: enums.ProductTypeSphere}},
		{"bad type", CreateProductInput{SKU: "x", Name: "x", Type: enums.ProductType("cube")}},
		{"bad status", CreateProductInput{SKU: "x", Name: "x", Type: enums.ProductTypeSphere, Status: enums.ProductStatus("archived")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateCreateInput(&tc.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error code, got %v", err)
			}
		})
	}
}

func TestApplyUpdateToProduct(t *testing.T) {
	price := decimal.RequireFromString("49.99")
	stock := 25
	inactive := enums.ProductStatusInactive

	product := &models.Product{
		SKU:    "old-sku",
		Name:   "Old Name",
		Price:  decimal.RequireFromString("59.99"),
		Stock:  10,
		Type:   enums.ProductTypeSphere,
		Status: enums.ProductStatusActive,
	}

	sku := "  new-sku  "
	name := " New Name "
	input := UpdateProductInput{
		SKU:    &sku,
		Name:   &name,
		Price:  &price,
		Stock:  &stock,
		Status: &inactive,
	}

	if err := applyUpdateToProduct(product, input); err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if product.SKU != "new-sku" {
		t.Fatalf("expected trimmed sku, got %q", product.SKU)
	}
	if product.Name != "New Name" {
		t.Fatalf("expected trimmed name, got %q", product.Name)
	}
	if !product.Price.Equal(price) {
		t.Fatalf("expected price %s, got %s", price, product.Price)
	}
	if product.Stock != 25 {
		t.Fatalf("expected stock 25, got %d", product.Stock)
	}
	if product.Status != enums.ProductStatusInactive {
		t.Fatalf("expected inactive status, got %s", product.Status)
	}
}

func TestApplyUpdateToProduct_RejectsInvalid(t *testing.T) {
	product := &models.Product{SKU: "sku", Name: "name"}

	empty := "   "
	if err := applyUpdateToProduct(product, UpdateProductInput{SKU: &empty}); err == nil {
		t.Fatal("expected error for empty sku")
	}

	negative := decimal.RequireFromString("-0.01")
	if err := applyUpdateToProduct(product, UpdateProductInput{Price: &negative}); err == nil {
		t.Fatal("expected error for negative price")
	}

	badType := enums.ProductType("cube")
	if err := applyUpdateToProduct(product, UpdateProductInput{Type: &badType}); err == nil {
		t.Fatal("expected error for invalid type")
	}
}

func TestNewService_RequiresRepo(t *testing.T) {
	if _, err := NewService(nil, configForTest()); err == nil {
		t.Fatal("expected error when repository is nil")
	}
}
