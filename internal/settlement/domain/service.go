package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/apperrors"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	"gorm.io/gorm"
)

var (
	ErrSettlementNotFound = apperrors.NotFound("settlement_not_found")
	ErrEmptySettlement    = apperrors.InvalidState("no_pending_commissions_in_period")
	ErrInvalidPeriod      = apperrors.Validation("invalid_settlement_period")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, settlement *Settlement) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Settlement, error)
	List(ctx context.Context, db *gorm.DB) ([]Settlement, error)

	// ListPendingInPeriod selects the PENDING commissions created inside
	// [from, to), locked for update where the dialect supports it.
	ListPendingInPeriod(ctx context.Context, db *gorm.DB, from, to time.Time) ([]commissiondomain.Commission, error)

	// AssignSettlement flips the commissions to SETTLED and links them to
	// the batch.
	AssignSettlement(ctx context.Context, db *gorm.DB, ids []snowflake.ID, settlementID snowflake.ID, at time.Time) error

	ListVendorPayouts(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]VendorPayout, error)
}

// Service is the settlement batcher. Generate is the only mutation; a batch
// is never reopened or regenerated, a second run over a fully settled
// period yields an empty selection and fails.
type Service interface {
	Generate(ctx context.Context, period string, preparedBy snowflake.ID) (Settlement, error)
	Get(ctx context.Context, id snowflake.ID) (Settlement, error)
	List(ctx context.Context) ([]Settlement, error)
	PayoutHistory(ctx context.Context, vendorID snowflake.ID) ([]VendorPayout, error)
}
