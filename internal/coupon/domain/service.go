package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/apperrors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound      = apperrors.NotFound("coupon_not_found")
	ErrCouponInactive      = apperrors.InvalidState("coupon_inactive")
	ErrCouponNotYetValid   = apperrors.InvalidState("coupon_not_yet_valid")
	ErrCouponExpired       = apperrors.InvalidState("coupon_expired")
	ErrCouponExhausted     = apperrors.InvalidState("coupon_usage_limit_reached")
	ErrCouponNotApplicable = apperrors.InvalidState("coupon_not_applicable_to_plan")
	ErrCouponCodeTaken     = apperrors.Conflict("coupon_code_already_exists")
	ErrCouponInUse         = apperrors.InvalidState("coupon_already_used")
	ErrInvalidCoupon       = apperrors.Validation("invalid_coupon")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, coupon *Coupon) error
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Coupon, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Coupon, error)
	List(ctx context.Context, db *gorm.DB) ([]Coupon, error)
	Update(ctx context.Context, db *gorm.DB, coupon *Coupon) error
	ReplacePlans(ctx context.Context, db *gorm.DB, couponID snowflake.ID, planIDs []snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	// IncrementUsage bumps the usage counter, refusing to pass the limit.
	// It reports whether a use was actually consumed.
	IncrementUsage(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}

type CreateCouponRequest struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	StartsAt      time.Time       `json:"starts_at"`
	EndsAt        time.Time       `json:"ends_at"`
	MaxUses       int             `json:"max_uses"`
	PlanIDs       []snowflake.ID  `json:"plan_ids"`
}

type UpdateCouponRequest struct {
	Code          *string          `json:"code"`
	Description   *string          `json:"description"`
	DiscountType  *DiscountType    `json:"discount_type"`
	DiscountValue *decimal.Decimal `json:"discount_value"`
	StartsAt      *time.Time       `json:"starts_at"`
	EndsAt        *time.Time       `json:"ends_at"`
	MaxUses       *int             `json:"max_uses"`
	PlanIDs       []snowflake.ID   `json:"plan_ids"`
}

type Service interface {
	Create(ctx context.Context, req CreateCouponRequest) (Coupon, error)
	Get(ctx context.Context, id snowflake.ID) (Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateCouponRequest) (Coupon, error)
	Toggle(ctx context.Context, id snowflake.ID) (Coupon, error)
	Delete(ctx context.Context, id snowflake.ID) error

	// Validate checks the coupon against the plan and the current time.
	// It does not consume a use; that is the caller's transactional
	// responsibility.
	Validate(ctx context.Context, code string, planID snowflake.ID) (Coupon, error)
}
