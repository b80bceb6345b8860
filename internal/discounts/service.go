package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/movakid/shop-backend/pkg/db"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
)

// Service validates and redeems discount codes.
type Service interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.DiscountCode, error)
	Amount(discount *models.DiscountCode, subtotal decimal.Decimal) decimal.Decimal
	ConsumeUse(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ListCodes(ctx context.Context) ([]models.DiscountCode, error)
	CreateCode(ctx context.Context, input CreateCodeInput) (*models.DiscountCode, error)
	UpdateCode(ctx context.Context, id uuid.UUID, input UpdateCodeInput) (*models.DiscountCode, error)
	DeleteCode(ctx context.Context, id uuid.UUID) error
}

// CreateCodeInput holds the validated payload to create a discount code.
type CreateCodeInput struct {
	Code          string
	Type          enums.DiscountType
	Value         decimal.Decimal
	MinOrderValue decimal.Decimal
	MaxUses       *int
	StartDate     *time.Time
	EndDate       *time.Time
	Status        enums.DiscountStatus
}

// UpdateCodeInput holds optional mutation values for a discount code.
type UpdateCodeInput struct {
	Value         *decimal.Decimal
	MinOrderValue *decimal.Decimal
	MaxUses       *int
	StartDate     *time.Time
	EndDate       *time.Time
	Status        *enums.DiscountStatus
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs a discount service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Validate checks the code against status, date window, usage cap and
// minimum order value for the given subtotal.
func (s *service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.DiscountCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	discount, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load discount code")
	}

	if err := checkRedeemable(discount, subtotal, s.now()); err != nil {
		return nil, err
	}
	return discount, nil
}

// checkRedeemable applies the redeemability rules in a fixed order:
// status, date window, usage cap, then minimum order value.
func checkRedeemable(discount *models.DiscountCode, subtotal decimal.Decimal, now time.Time) error {
	switch {
	case discount.Status != enums.DiscountStatusActive:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "discount code is inactive")
	case discount.StartDate != nil && now.Before(*discount.StartDate):
		return pkgerrors.New(pkgerrors.CodeStateConflict, "discount code is not yet valid")
	case discount.EndDate != nil && now.After(*discount.EndDate):
		return pkgerrors.New(pkgerrors.CodeStateConflict, "discount code has expired")
	case discount.MaxUses != nil && discount.UsesCount >= *discount.MaxUses:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "discount code usage limit reached")
	case subtotal.LessThan(discount.MinOrderValue):
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order value below discount minimum").
			WithDetails(map[string]any{"min_order_value": discount.MinOrderValue.StringFixed(2)})
	}
	return nil
}

// Amount computes the money value of the discount for the subtotal.
// Free shipping codes carry no subtotal reduction.
func (s *service) Amount(discount *models.DiscountCode, subtotal decimal.Decimal) decimal.Decimal {
	if discount == nil {
		return decimal.Zero
	}
	switch discount.Type {
	case enums.DiscountTypePercentage:
		return subtotal.Mul(discount.Value).Div(decimal.NewFromInt(100))
	case enums.DiscountTypeFixed:
		return decimal.Min(discount.Value, subtotal)
	default:
		return decimal.Zero
	}
}

// ConsumeUse redeems one use inside the caller's transaction.
func (s *service) ConsumeUse(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.ConsumeUse(ctx, id); err != nil {
		if errors.Is(err, ErrUsageExhausted) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "discount code usage limit reached")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume discount use")
	}
	return nil
}

func (s *service) ListCodes(ctx context.Context) ([]models.DiscountCode, error) {
	codes, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list discount codes")
	}
	return codes, nil
}

func (s *service) CreateCode(ctx context.Context, input CreateCodeInput) (*models.DiscountCode, error) {
	if err := validateCreateCode(&input); err != nil {
		return nil, err
	}

	discount := &models.DiscountCode{
		Code:          input.Code,
		Type:          input.Type,
		Value:         input.Value,
		MinOrderValue: input.MinOrderValue,
		MaxUses:       input.MaxUses,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Status:        input.Status,
	}
	created, err := s.repo.Create(ctx, discount)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "discount code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create discount code")
	}
	return created, nil
}

func (s *service) UpdateCode(ctx context.Context, id uuid.UUID, input UpdateCodeInput) (*models.DiscountCode, error) {
	discount, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load discount code")
	}

	if input.Value != nil {
		if input.Value.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "value cannot be negative")
		}
		discount.Value = *input.Value
	}
	if input.MinOrderValue != nil {
		if input.MinOrderValue.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min order value cannot be negative")
		}
		discount.MinOrderValue = *input.MinOrderValue
	}
	if input.MaxUses != nil {
		if *input.MaxUses < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses cannot be negative")
		}
		discount.MaxUses = input.MaxUses
	}
	if input.StartDate != nil {
		discount.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		discount.EndDate = input.EndDate
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount status %q", *input.Status))
		}
		discount.Status = *input.Status
	}

	updated, err := s.repo.Update(ctx, discount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update discount code")
	}
	return updated, nil
}

func (s *service) DeleteCode(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete discount code")
	}
	return nil
}

func validateCreateCode(input *CreateCodeInput) error {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	if input.Code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount type %q", input.Type))
	}
	if input.Value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "value cannot be negative")
	}
	if input.Type == enums.DiscountTypePercentage && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
	}
	if input.MinOrderValue.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "min order value cannot be negative")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date cannot precede start date")
	}
	if input.Status == "" {
		input.Status = enums.DiscountStatusActive
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid discount status %q", input.Status))
	}
	return nil
}
