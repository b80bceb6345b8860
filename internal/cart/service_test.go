package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
)

type stubProducts struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *product
	return &clone, nil
}

type stubDiscounts struct {
	code *models.DiscountCode
	err  error
}

func (s *stubDiscounts) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.DiscountCode, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.code, nil
}

func newTestService(t *testing.T, products ...*models.Product) (Service, *stubProducts, *stubDiscounts) {
	t.Helper()
	loader := &stubProducts{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		loader.products[p.ID] = p
	}
	discounts := &stubDiscounts{}
	svc, err := NewService(loader, discounts, storeConfigForTest())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, loader, discounts
}

func sphereProduct(stock int) *models.Product {
	return &models.Product{
		ID:     uuid.New(),
		SKU:    "MK-SPH-001",
		Name:   "MovaKid Sphere",
		Price:  decimal.RequireFromString("59.99"),
		Stock:  stock,
		Type:   enums.ProductTypeSphere,
		Status: enums.ProductStatusActive,
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestAdd_MergesQuantities(t *testing.T) {
	product := sphereProduct(5)
	svc, _, _ := newTestService(t, product)
	c := New()
	ctx := context.Background()

	if err := svc.Add(ctx, c, product.ID, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := svc.Add(ctx, c, product.ID, 3); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(c.Entries) != 1 {
		t.Fatalf("expected one merged entry, got %d", len(c.Entries))
	}
	if c.Entries[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", c.Entries[0].Quantity)
	}
	if c.Entries[0].Name != product.Name {
		t.Fatalf("expected snapshot name, got %s", c.Entries[0].Name)
	}
}

func TestAdd_CumulativeStockCheckLeavesEntryUnchanged(t *testing.T) {
	product := sphereProduct(4)
	svc, _, _ := newTestService(t, product)
	c := New()
	ctx := context.Background()

	if err := svc.Add(ctx, c, product.ID, 3); err != nil {
		t.Fatalf("first add: %v", err)
	}

	err := svc.Add(ctx, c, product.ID, 2)
	assertCode(t, err, pkgerrors.CodeStateConflict)

	if c.Entries[0].Quantity != 3 {
		t.Fatalf("failed add must not mutate the entry, got quantity %d", c.Entries[0].Quantity)
	}
}

func TestAdd_Validation(t *testing.T) {
	product := sphereProduct(5)
	svc, _, _ := newTestService(t, product)
	ctx := context.Background()

	assertCode(t, svc.Add(ctx, New(), product.ID, 0), pkgerrors.CodeValidation)
	assertCode(t, svc.Add(ctx, New(), uuid.New(), 1), pkgerrors.CodeNotFound)
}

func TestAdd_RejectsInactiveProduct(t *testing.T) {
	product := sphereProduct(5)
	product.Status = enums.ProductStatusInactive
	svc, _, _ := newTestService(t, product)

	assertCode(t, svc.Add(context.Background(), New(), product.ID, 1), pkgerrors.CodeNotFound)
}

func TestUpdate_SetsQuantityWithStockCheck(t *testing.T) {
	product := sphereProduct(5)
	svc, _, _ := newTestService(t, product)
	c := New()
	ctx := context.Background()

	if err := svc.Add(ctx, c, product.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Update(ctx, c, product.ID, 4); err != nil {
		t.Fatalf("update: %v", err)
	}
	if c.Entries[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", c.Entries[0].Quantity)
	}

	assertCode(t, svc.Update(ctx, c, product.ID, 6), pkgerrors.CodeStateConflict)
	assertCode(t, svc.Update(ctx, c, product.ID, 0), pkgerrors.CodeValidation)
	assertCode(t, svc.Update(ctx, c, uuid.New(), 1), pkgerrors.CodeNotFound)
}

func TestRemoveAndClear(t *testing.T) {
	product := sphereProduct(5)
	svc, _, _ := newTestService(t, product)
	c := New()
	ctx := context.Background()

	if err := svc.Add(ctx, c, product.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Remove(c, product.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !c.IsEmpty() {
		t.Fatalf("expected empty cart after remove")
	}
	assertCode(t, svc.Remove(c, product.ID), pkgerrors.CodeNotFound)

	if err := svc.Add(ctx, c, product.ID, 2); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	c.Discount = &AppliedDiscount{Code: "SAVE20", Type: enums.DiscountTypePercentage, Value: decimal.NewFromInt(20)}
	svc.Clear(c)
	if !c.IsEmpty() || c.Discount != nil {
		t.Fatalf("expected clear to drop entries and discount")
	}
}

func TestApplyDiscount(t *testing.T) {
	product := sphereProduct(5)
	svc, _, discounts := newTestService(t, product)
	c := New()
	ctx := context.Background()

	assertCode(t, svc.ApplyDiscount(ctx, c, "SAVE20"), pkgerrors.CodeStateConflict)

	if err := svc.Add(ctx, c, product.ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	discounts.code = &models.DiscountCode{
		Code:  "SAVE20",
		Type:  enums.DiscountTypePercentage,
		Value: decimal.NewFromInt(20),
	}
	if err := svc.ApplyDiscount(ctx, c, "SAVE20"); err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	if c.Discount == nil || c.Discount.Code != "SAVE20" {
		t.Fatalf("expected discount applied, got %+v", c.Discount)
	}

	// a new code replaces the previous one
	discounts.code = &models.DiscountCode{
		Code: "FREESHIP",
		Type: enums.DiscountTypeFreeShipping,
	}
	if err := svc.ApplyDiscount(ctx, c, "FREESHIP"); err != nil {
		t.Fatalf("replace discount: %v", err)
	}
	if c.Discount.Code != "FREESHIP" {
		t.Fatalf("expected replacement code, got %s", c.Discount.Code)
	}

	// validation failures leave the current discount in place
	discounts.code = nil
	discounts.err = pkgerrors.New(pkgerrors.CodeStateConflict, "discount code has expired")
	assertCode(t, svc.ApplyDiscount(ctx, c, "EXPIRED"), pkgerrors.CodeStateConflict)
	if c.Discount == nil || c.Discount.Code != "FREESHIP" {
		t.Fatalf("failed apply must keep previous discount")
	}

	svc.RemoveDiscount(c)
	if c.Discount != nil {
		t.Fatalf("expected discount removed")
	}
}
