package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)), func() time.Time { return fixedNow })
	require.NoError(t, err)
	return svc
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustCreate(t *testing.T, svc Service, in CreateCouponInput) *CouponDTO {
	t.Helper()
	if in.ExpiresAt.IsZero() {
		in.ExpiresAt = fixedNow.Add(24 * time.Hour)
	}
	out, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return out
}

func TestValidatePercentage(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, CreateCouponInput{Code: "save10", DiscountType: enums.DiscountTypePercentage, DiscountValue: dec("10"), UsageLimit: intPtr(5)})

	quote, err := svc.Validate(context.Background(), " Save10 ", dec("100"))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", quote.Code)
	assert.True(t, dec("10").Equal(quote.Discount))
	assert.True(t, dec("90").Equal(quote.NewTotal))
}

func TestValidateFlatIsClampedToTotal(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, CreateCouponInput{Code: "BIG", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("50")})

	quote, err := svc.Validate(context.Background(), "BIG", dec("30"))
	require.NoError(t, err)
	assert.True(t, dec("30").Equal(quote.Discount))
	assert.True(t, quote.NewTotal.IsZero())
}

func TestDiscountRoundsToCents(t *testing.T) {
	got := Discount(enums.DiscountTypePercentage, dec("15"), dec("33.33"))
	assert.Equal(t, "5.00", got.StringFixed(2))
	assert.True(t, dec("5").Equal(got))
}

func TestValidateBelowMinimum(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, CreateCouponInput{Code: "MIN50", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("5"), MinOrderAmount: dec("50")})

	_, err := svc.Validate(context.Background(), "MIN50", dec("40"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "Minimum order amount 50.00 required", pkgerrors.As(err).Message())
}

func TestValidateRejections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, CreateCouponInput{Code: "OLD", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("5"), ExpiresAt: fixedNow.Add(-time.Hour)})
	mustCreate(t, svc, CreateCouponInput{Code: "OFF", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("5"), IsActive: boolPtr(false)})
	mustCreate(t, svc, CreateCouponInput{Code: "ONCE", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("5"), UsageLimit: intPtr(1)})
	require.NoError(t, svc.Consume(ctx, "once"))

	cases := map[string]pkgerrors.Code{
		"NOPE": pkgerrors.CodeNotFound,
		"OFF":  pkgerrors.CodeNotFound,
		"OLD":  pkgerrors.CodeExpired,
		"ONCE": pkgerrors.CodeLimitReached,
		"":     pkgerrors.CodeNotFound,
	}
	for code, want := range cases {
		_, err := svc.Validate(ctx, code, dec("100"))
		assert.True(t, pkgerrors.IsCode(err, want), "code %q: got %v", code, err)
	}
}

func TestConsumeStopsAtLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created := mustCreate(t, svc, CreateCouponInput{Code: "TWICE", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("1"), UsageLimit: intPtr(2)})

	require.NoError(t, svc.Consume(ctx, "TWICE"))
	require.NoError(t, svc.Consume(ctx, "TWICE"))
	err := svc.Consume(ctx, "TWICE")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeLimitReached))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsedCount)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, CreateCouponInput{Code: "DUP", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("1")})

	_, err := svc.Create(context.Background(), CreateCouponInput{Code: "dup", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("2"), ExpiresAt: fixedNow.Add(time.Hour)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Equal(t, "Coupon code already exists", pkgerrors.As(err).Message())
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), CreateCouponInput{Code: "BAD", DiscountType: "bogus", DiscountValue: dec("1"), ExpiresAt: fixedNow})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(context.Background(), CreateCouponInput{Code: "BAD", DiscountType: enums.DiscountTypePercentage, DiscountValue: dec("150"), ExpiresAt: fixedNow})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateListDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, CreateCouponInput{Code: "A", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("1")})
	mustCreate(t, svc, CreateCouponInput{Code: "B", DiscountType: enums.DiscountTypeFlat, DiscountValue: dec("1")})

	value := dec("7.5")
	out, err := svc.Update(ctx, a.ID, UpdateCouponInput{DiscountValue: &value, IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.True(t, value.Equal(out.DiscountValue))
	assert.False(t, out.IsActive)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, a.ID), pkgerrors.CodeNotFound))

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Update(ctx, uuid.New(), UpdateCouponInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
