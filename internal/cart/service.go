package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type discountValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.DiscountCode, error)
}

// Service mutates cart value objects against the live catalog.
type Service interface {
	Add(ctx context.Context, c *Cart, productID uuid.UUID, qty int) error
	Update(ctx context.Context, c *Cart, productID uuid.UUID, qty int) error
	Remove(c *Cart, productID uuid.UUID) error
	Clear(c *Cart)
	Summary(c *Cart) Summary
	ApplyDiscount(ctx context.Context, c *Cart, code string) error
	RemoveDiscount(c *Cart)
}

type service struct {
	products  productLoader
	discounts discountValidator
	store     config.StoreConfig
}

// NewService constructs a cart service instance.
func NewService(products productLoader, discounts discountValidator, store config.StoreConfig) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if discounts == nil {
		return nil, fmt.Errorf("discount validator required")
	}
	return &service{products: products, discounts: discounts, store: store}, nil
}

// Add merges qty into the product's entry, validating the cumulative
// quantity against live stock. On failure the cart is left unchanged.
func (s *service) Add(ctx context.Context, c *Cart, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadSellableProduct(ctx, productID)
	if err != nil {
		return err
	}

	requested := qty
	idx := c.entryIndex(productID)
	if idx >= 0 {
		requested += c.Entries[idx].Quantity
	}
	if requested > product.Stock {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]any{"available": product.Stock, "requested": requested})
	}

	if idx >= 0 {
		c.Entries[idx].Quantity = requested
		return nil
	}
	c.Entries = append(c.Entries, Entry{
		ProductID: product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  qty,
		Type:      product.Type,
		ImageURL:  product.ImageURL,
	})
	return nil
}

// Update sets the entry's quantity to qty after re-checking stock.
func (s *service) Update(ctx context.Context, c *Cart, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	idx := c.entryIndex(productID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}

	product, err := s.loadSellableProduct(ctx, productID)
	if err != nil {
		return err
	}
	if qty > product.Stock {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]any{"available": product.Stock, "requested": qty})
	}

	c.Entries[idx].Quantity = qty
	return nil
}

// Remove drops the product's entry if present.
func (s *service) Remove(c *Cart, productID uuid.UUID) error {
	idx := c.entryIndex(productID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	c.Entries = append(c.Entries[:idx], c.Entries[idx+1:]...)
	return nil
}

// Clear empties the cart and drops any applied discount.
func (s *service) Clear(c *Cart) {
	c.Entries = []Entry{}
	c.Discount = nil
}

// Summary computes the cart totals under the store pricing rules.
func (s *service) Summary(c *Cart) Summary {
	return Summarize(c, s.store)
}

// ApplyDiscount validates the code against the current subtotal and
// attaches it, replacing any previously applied code.
func (s *service) ApplyDiscount(ctx context.Context, c *Cart, code string) error {
	if c.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	discount, err := s.discounts.Validate(ctx, code, c.Subtotal())
	if err != nil {
		return err
	}

	c.Discount = &AppliedDiscount{
		Code:  discount.Code,
		Type:  discount.Type,
		Value: discount.Value,
	}
	return nil
}

// RemoveDiscount drops the applied code, if any.
func (s *service) RemoveDiscount(c *Cart) {
	c.Discount = nil
}

func (s *service) loadSellableProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}
