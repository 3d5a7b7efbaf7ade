package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const invalidCodeMessage = "Invalid coupon code"

var hundred = decimal.NewFromInt(100)

// Service validates, consumes and manages discount codes.
type Service interface {
	Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*Quote, error)
	Consume(ctx context.Context, code string) error
	Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error)
	List(ctx context.Context) ([]CouponDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

// NormalizeCode trims and uppercases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Validate(ctx context.Context, code string, cartTotal decimal.Decimal) (*Quote, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, invalidCodeMessage)
	}
	if cartTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must be non-negative")
	}

	coupon, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, invalidCodeMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, invalidCodeMessage)
	}
	if coupon.ExpiresAt.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "Coupon has expired")
	}
	if coupon.Exhausted() {
		return nil, pkgerrors.New(pkgerrors.CodeLimitReached, "Coupon usage limit reached")
	}
	if cartTotal.LessThan(coupon.MinOrderAmount) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Minimum order amount %s required", coupon.MinOrderAmount.StringFixed(2))
	}

	discount := Discount(coupon.DiscountType, coupon.DiscountValue, cartTotal)
	return &Quote{
		Code:     coupon.Code,
		Discount: discount,
		NewTotal: cartTotal.Sub(discount),
	}, nil
}

// Discount computes the amount off total, clamped to [0, total] and rounded to cents.
func Discount(kind enums.DiscountType, value, total decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	if kind == enums.DiscountTypePercentage {
		d = total.Mul(value).Div(hundred)
	} else {
		d = value
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	if d.GreaterThan(total) {
		d = total
	}
	return d.Round(2)
}

func (s *service) Consume(ctx context.Context, code string) error {
	ok, err := s.repo.IncrementUsage(ctx, NormalizeCode(code))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume coupon")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeLimitReached, "Coupon usage limit reached")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	limit := 1
	if input.UsageLimit != nil {
		limit = *input.UsageLimit
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	coupon := &models.Coupon{
		Code:           code,
		DiscountType:   input.DiscountType,
		DiscountValue:  input.DiscountValue,
		MinOrderAmount: input.MinOrderAmount,
		ExpiresAt:      input.ExpiresAt,
		UsageLimit:     limit,
		IsActive:       active,
	}
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	dto := FromModel(coupon)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	out := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CouponDTO, error) {
	coupon, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(coupon)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*CouponDTO, error) {
	coupon, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Code != nil {
		coupon.Code = NormalizeCode(*input.Code)
	}
	if input.DiscountType != nil {
		coupon.DiscountType = *input.DiscountType
	}
	if input.DiscountValue != nil {
		coupon.DiscountValue = *input.DiscountValue
	}
	if input.MinOrderAmount != nil {
		coupon.MinOrderAmount = *input.MinOrderAmount
	}
	if input.ExpiresAt != nil {
		coupon.ExpiresAt = *input.ExpiresAt
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = *input.UsageLimit
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	dto := FromModel(coupon)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Coupon not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

func validateCoupon(c *models.Coupon) error {
	if c.Code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if !c.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_type must be percentage or flat")
	}
	if !c.DiscountValue.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_value must be positive")
	}
	if c.DiscountType == enums.DiscountTypePercentage && c.DiscountValue.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if c.MinOrderAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "min_order_amount must be non-negative")
	}
	if c.UsageLimit < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage_limit must be at least 1")
	}
	if c.ExpiresAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "expires_at is required")
	}
	return nil
}
