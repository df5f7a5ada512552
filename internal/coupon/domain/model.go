// Package domain contains the MiaPass discount coupon model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code          string          `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Description   string          `gorm:"type:text" json:"description"`
	DiscountType  DiscountType    `gorm:"type:text;not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	StartsAt      time.Time       `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time       `gorm:"not null" json:"ends_at"`
	Uses          int             `gorm:"not null;default:0" json:"uses"`
	MaxUses       int             `gorm:"not null" json:"max_uses"`
	Active        bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`

	// PlanIDs restricts the coupon to specific plans. Empty means the
	// coupon applies to every plan.
	PlanIDs []snowflake.ID `gorm:"-" json:"plan_ids,omitempty"`
}

func (Coupon) TableName() string { return "miapass_coupons" }

// CouponPlan links a coupon to one plan it applies to.
type CouponPlan struct {
	CouponID snowflake.ID `gorm:"primaryKey"`
	PlanID   snowflake.ID `gorm:"primaryKey"`
}

func (CouponPlan) TableName() string { return "miapass_coupon_plans" }

// AppliesTo reports whether the coupon may discount the given plan.
func (c Coupon) AppliesTo(planID snowflake.ID) bool {
	if len(c.PlanIDs) == 0 {
		return true
	}
	for _, id := range c.PlanIDs {
		if id == planID {
			return true
		}
	}
	return false
}

// Apply returns the price after discount, clamped at zero. Percentage
// coupons discount a fraction of the price; fixed coupons subtract a flat
// amount.
func (c Coupon) Apply(price decimal.Decimal) decimal.Decimal {
	var discounted decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount := price.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		discounted = price.Sub(discount)
	case DiscountFixed:
		discounted = price.Sub(c.DiscountValue)
	default:
		return price
	}
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}
