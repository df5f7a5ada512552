package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/apperrors"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = apperrors.NotFound("subscription_not_found")
	ErrInvalidVendor        = apperrors.Validation("invalid_vendor")
	ErrLiquidationLocked    = apperrors.Conflict("vendor_liquidation_in_progress")
)

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, commissions []Commission) error
	ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Commission, error)

	// CountLiquidated counts non-reversed commissions for the
	// subscription; a positive count means liquidation already ran.
	CountLiquidated(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (int64, error)

	// ListReversible selects the subscription's PENDING and SETTLED
	// commissions, locked for update where the dialect supports it.
	ListReversible(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]Commission, error)

	MarkReversed(ctx context.Context, db *gorm.DB, ids []snowflake.ID, reason string, at time.Time) error
	ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]Commission, error)

	// ListAmounts returns every commission's status and amount. Sums
	// happen in Go so dialects agree to the cent.
	ListAmounts(ctx context.Context, db *gorm.DB) ([]StatusAmount, error)

	// CountVendorMonthlySales counts the vendor's subscriptions in the
	// given states created inside [monthStart, now].
	CountVendorMonthlySales(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, states []string, monthStart, now time.Time) (int64, error)
}

// Engine turns a liquidated sale into commission records and reverses them
// when the sale is voided.
type Engine interface {
	// Liquidate computes and persists the commissions owed for the
	// subscription. Idempotent: a second call is a no-op returning nil
	// records. A subscription outside the liquidatable state is also a
	// no-op.
	Liquidate(ctx context.Context, subscriptionID snowflake.ID) ([]Commission, error)

	// Reverse transitions every PENDING or SETTLED commission of the
	// subscription to REVERSED. PAID commissions are left untouched;
	// clawback of disbursed money is a manual process outside this core.
	// The db handle lets callers run the reversal inside their own
	// transaction.
	Reverse(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, reason string) ([]Commission, error)

	GetVendorStanding(ctx context.Context, vendorID snowflake.ID) (VendorStanding, error)
	GetVendorCommissions(ctx context.Context, vendorID snowflake.ID) (VendorCommissions, error)
	GetOverview(ctx context.Context) (Overview, error)
}
