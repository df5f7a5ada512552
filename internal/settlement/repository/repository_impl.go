package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	settlementdomain "github.com/clinicamia/miapass/internal/settlement/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repositoryImpl struct{}

func Provide() settlementdomain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Insert(ctx context.Context, db *gorm.DB, settlement *settlementdomain.Settlement) error {
	return db.WithContext(ctx).Create(settlement).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*settlementdomain.Settlement, error) {
	var settlement settlementdomain.Settlement
	err := db.WithContext(ctx).Where("id = ?", id).First(&settlement).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *repositoryImpl) List(ctx context.Context, db *gorm.DB) ([]settlementdomain.Settlement, error) {
	var settlements []settlementdomain.Settlement
	err := db.WithContext(ctx).Order("id DESC").Find(&settlements).Error
	if err != nil {
		return nil, err
	}
	return settlements, nil
}

func (r *repositoryImpl) ListPendingInPeriod(ctx context.Context, db *gorm.DB, from, to time.Time) ([]commissiondomain.Commission, error) {
	query := db.WithContext(ctx).
		Where("status = ?", string(commissiondomain.StatusPending)).
		Where("created_at >= ? AND created_at < ?", from, to)
	if db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var commissions []commissiondomain.Commission
	if err := query.Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repositoryImpl) AssignSettlement(ctx context.Context, db *gorm.DB, ids []snowflake.ID, settlementID snowflake.ID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(`
		UPDATE miapass_commissions
		SET status = ?, settlement_id = ?, updated_at = ?
		WHERE id IN ?
	`, string(commissiondomain.StatusSettled), settlementID, at, ids).Error
}

// ListVendorPayouts groups the vendor's settled and paid commissions by
// batch. Amounts are summed in Go to keep decimal arithmetic exact across
// dialects.
func (r *repositoryImpl) ListVendorPayouts(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]settlementdomain.VendorPayout, error) {
	var commissions []commissiondomain.Commission
	err := db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Where("settlement_id IS NOT NULL").
		Where("status IN ?", []string{
			string(commissiondomain.StatusSettled),
			string(commissiondomain.StatusPaid),
		}).
		Order("id ASC").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	if len(commissions) == 0 {
		return nil, nil
	}

	byBatch := make(map[snowflake.ID]*settlementdomain.VendorPayout)
	order := make([]snowflake.ID, 0)
	for _, c := range commissions {
		id := *c.SettlementID
		payout, ok := byBatch[id]
		if !ok {
			payout = &settlementdomain.VendorPayout{Amount: decimal.Zero}
			byBatch[id] = payout
			order = append(order, id)
		}
		payout.Amount = payout.Amount.Add(c.Amount)
		payout.Count++
	}

	var settlements []settlementdomain.Settlement
	if err := db.WithContext(ctx).Where("id IN ?", order).Find(&settlements).Error; err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]settlementdomain.Settlement, len(settlements))
	for _, s := range settlements {
		byID[s.ID] = s
	}

	payouts := make([]settlementdomain.VendorPayout, 0, len(order))
	for _, id := range order {
		payout := byBatch[id]
		payout.Settlement = byID[id]
		payouts = append(payouts, *payout)
	}
	return payouts, nil
}
