package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repositoryImpl struct{}

func Provide() commissiondomain.Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) InsertBatch(ctx context.Context, db *gorm.DB, commissions []commissiondomain.Commission) error {
	if len(commissions) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&commissions).Error
}

func (r *repositoryImpl) ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]commissiondomain.Commission, error) {
	var commissions []commissiondomain.Commission
	err := db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("id ASC").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repositoryImpl) CountLiquidated(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&commissiondomain.Commission{}).
		Where("subscription_id = ?", subscriptionID).
		Where("status != ?", string(commissiondomain.StatusReversed)).
		Count(&count).Error
	return count, err
}

// ListReversible locks the non-terminal rows of a subscription. PAID rows are
// excluded, they are settled money and need an accounting adjustment instead.
func (r *repositoryImpl) ListReversible(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]commissiondomain.Commission, error) {
	query := db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Where("status IN ?", []string{
			string(commissiondomain.StatusPending),
			string(commissiondomain.StatusSettled),
		})
	if db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var commissions []commissiondomain.Commission
	if err := query.Find(&commissions).Error; err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repositoryImpl) MarkReversed(ctx context.Context, db *gorm.DB, ids []snowflake.ID, reason string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(`
		UPDATE miapass_commissions
		SET status = ?, reversal_reason = ?, reversed_at = ?, updated_at = ?
		WHERE id IN ?
	`, string(commissiondomain.StatusReversed), reason, at, at, ids).Error
}

func (r *repositoryImpl) ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]commissiondomain.Commission, error) {
	var commissions []commissiondomain.Commission
	err := db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("id DESC").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

func (r *repositoryImpl) ListAmounts(ctx context.Context, db *gorm.DB) ([]commissiondomain.StatusAmount, error) {
	var amounts []commissiondomain.StatusAmount
	err := db.WithContext(ctx).
		Raw(`SELECT status, amount FROM miapass_commissions`).
		Scan(&amounts).Error
	if err != nil {
		return nil, err
	}
	return amounts, nil
}

// CountVendorMonthlySales counts direct sales a vendor closed inside
// [monthStart, now], in states the tier policy treats as live. The sale
// being liquidated is already inserted, so it counts itself.
func (r *repositoryImpl) CountVendorMonthlySales(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, states []string, monthStart, now time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM miapass_subscriptions
		WHERE vendor_id = ?
		  AND status IN ?
		  AND start_at >= ?
		  AND start_at <= ?
	`, vendorID, states, monthStart, now).Scan(&count).Error
	return count, err
}
