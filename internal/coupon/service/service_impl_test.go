package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	coupondomain "github.com/clinicamia/miapass/internal/coupon/domain"
	"github.com/clinicamia/miapass/internal/coupon/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (coupondomain.Service, coupondomain.Repository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&coupondomain.Coupon{}, &coupondomain.CouponPlan{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := repository.Provide()
	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed{T: testNow},
		Repo:  repo,
	})
	return svc, repo, db
}

func validCreateRequest() coupondomain.CreateCouponRequest {
	return coupondomain.CreateCouponRequest{
		Code:          "MIA20",
		DiscountType:  coupondomain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(20),
		StartsAt:      testNow.AddDate(0, -1, 0),
		EndsAt:        testNow.AddDate(0, 1, 0),
		MaxUses:       10,
	}
}

func TestCreateCoupon(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	coupon, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "MIA20", coupon.Code)
	assert.True(t, coupon.Active)

	_, err = svc.Create(ctx, validCreateRequest())
	assert.ErrorIs(t, err, coupondomain.ErrCouponCodeTaken)

	t.Run("rejects malformed requests", func(t *testing.T) {
		for _, mutate := range []func(*coupondomain.CreateCouponRequest){
			func(r *coupondomain.CreateCouponRequest) { r.Code = "  " },
			func(r *coupondomain.CreateCouponRequest) { r.MaxUses = 0 },
			func(r *coupondomain.CreateCouponRequest) { r.DiscountValue = decimal.NewFromInt(-5) },
			func(r *coupondomain.CreateCouponRequest) { r.EndsAt = r.StartsAt },
			func(r *coupondomain.CreateCouponRequest) { r.DiscountType = "half-off" },
		} {
			req := validCreateRequest()
			req.Code = "OTHER"
			mutate(&req)
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, coupondomain.ErrInvalidCoupon)
		}
	})
}

func TestValidateCoupon(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	planID := snowflake.ID(101)
	otherPlanID := snowflake.ID(102)

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.Validate(ctx, "NOPE", planID)
		assert.ErrorIs(t, err, coupondomain.ErrCouponNotFound)
	})

	coupon, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		got, err := svc.Validate(ctx, "MIA20", planID)
		require.NoError(t, err)
		assert.Equal(t, coupon.ID, got.ID)
	})

	t.Run("inactive", func(t *testing.T) {
		_, err := svc.Toggle(ctx, coupon.ID)
		require.NoError(t, err)
		_, err = svc.Validate(ctx, "MIA20", planID)
		assert.ErrorIs(t, err, coupondomain.ErrCouponInactive)
		_, err = svc.Toggle(ctx, coupon.ID)
		require.NoError(t, err)
	})

	t.Run("not yet valid", func(t *testing.T) {
		req := validCreateRequest()
		req.Code = "FUTURE"
		req.StartsAt = testNow.AddDate(0, 0, 1)
		req.EndsAt = testNow.AddDate(0, 2, 0)
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)

		_, err = svc.Validate(ctx, "FUTURE", planID)
		assert.ErrorIs(t, err, coupondomain.ErrCouponNotYetValid)
	})

	t.Run("expired", func(t *testing.T) {
		req := validCreateRequest()
		req.Code = "OLD"
		req.StartsAt = testNow.AddDate(0, -2, 0)
		req.EndsAt = testNow.AddDate(0, -1, 0)
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)

		_, err = svc.Validate(ctx, "OLD", planID)
		assert.ErrorIs(t, err, coupondomain.ErrCouponExpired)
	})

	t.Run("exhausted", func(t *testing.T) {
		require.NoError(t, db.Exec(
			"UPDATE miapass_coupons SET uses = max_uses WHERE id = ?", coupon.ID,
		).Error)
		_, err := svc.Validate(ctx, "MIA20", planID)
		assert.ErrorIs(t, err, coupondomain.ErrCouponExhausted)
		require.NoError(t, db.Exec(
			"UPDATE miapass_coupons SET uses = 0 WHERE id = ?", coupon.ID,
		).Error)
	})

	t.Run("plan restriction", func(t *testing.T) {
		req := validCreateRequest()
		req.Code = "PLANONLY"
		req.PlanIDs = []snowflake.ID{planID}
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)

		_, err = svc.Validate(ctx, "PLANONLY", planID)
		assert.NoError(t, err)
		_, err = svc.Validate(ctx, "PLANONLY", otherPlanID)
		assert.ErrorIs(t, err, coupondomain.ErrCouponNotApplicable)
	})
}

func TestIncrementUsageRespectsLimit(t *testing.T) {
	svc, repo, db := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.MaxUses = 2
	coupon, err := svc.Create(ctx, req)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		consumed, err := repo.IncrementUsage(ctx, db, coupon.ID)
		require.NoError(t, err)
		assert.True(t, consumed)
	}

	consumed, err := repo.IncrementUsage(ctx, db, coupon.ID)
	require.NoError(t, err)
	assert.False(t, consumed, "third use must be refused")
}

func TestDeleteCoupon(t *testing.T) {
	svc, repo, db := newTestService(t)
	ctx := context.Background()

	coupon, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	consumed, err := repo.IncrementUsage(ctx, db, coupon.ID)
	require.NoError(t, err)
	require.True(t, consumed)

	// A coupon that discounted a real sale stays for the audit trail.
	assert.ErrorIs(t, svc.Delete(ctx, coupon.ID), coupondomain.ErrCouponInUse)

	fresh, err := svc.Create(ctx, func() coupondomain.CreateCouponRequest {
		r := validCreateRequest()
		r.Code = "UNUSED"
		return r
	}())
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, fresh.ID))

	_, err = svc.Get(ctx, fresh.ID)
	assert.ErrorIs(t, err, coupondomain.ErrCouponNotFound)
}
