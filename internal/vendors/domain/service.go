package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/apperrors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrVendorNotFound = apperrors.NotFound("vendor_not_found")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, vendor *Vendor) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Vendor, error)

	// FindByReferralCode returns nil when the code is unknown; callers
	// treat that as "no vendor linkage", never as a sale blocker.
	FindByReferralCode(ctx context.Context, db *gorm.DB, code string) (*Vendor, error)

	FindByHierarchyRole(ctx context.Context, db *gorm.DB, role string) (*Vendor, error)
	FindChildren(ctx context.Context, db *gorm.DB, parentID snowflake.ID) ([]Vendor, error)

	// CountActiveSales counts subscriptions sold by the vendor currently
	// in one of the given states.
	CountActiveSales(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, states []string) (int64, error)

	// SumReferralEarnings totals the vendor's non-reversed commissions in
	// the given beneficiary role.
	SumReferralEarnings(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, role string) (decimal.Decimal, error)
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (Vendor, error)

	// GetNetwork resolves the vendor's level-1 and level-2 downline. The
	// walk is bounded to two levels regardless of stored depth.
	GetNetwork(ctx context.Context, vendorID snowflake.ID) (Network, error)

	// GetUpline resolves the vendor's parent and grandparent with an
	// explicit two-hop bound; a cycle in the stored hierarchy is logged
	// and truncates the walk instead of recursing.
	GetUpline(ctx context.Context, vendorID snowflake.ID) (Upline, error)
}
