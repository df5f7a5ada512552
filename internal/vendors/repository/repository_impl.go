package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	vendordomain "github.com/clinicamia/miapass/internal/vendors/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() vendordomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, vendor *vendordomain.Vendor) error {
	return db.WithContext(ctx).Create(vendor).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*vendordomain.Vendor, error) {
	var vendor vendordomain.Vendor
	err := db.WithContext(ctx).Model(&vendordomain.Vendor{}).
		Where("id = ?", id).
		First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) FindByReferralCode(ctx context.Context, db *gorm.DB, code string) (*vendordomain.Vendor, error) {
	var vendor vendordomain.Vendor
	err := db.WithContext(ctx).Model(&vendordomain.Vendor{}).
		Where("referral_code = ?", code).
		First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) FindByHierarchyRole(ctx context.Context, db *gorm.DB, role string) (*vendordomain.Vendor, error) {
	var vendor vendordomain.Vendor
	err := db.WithContext(ctx).Model(&vendordomain.Vendor{}).
		Where("hierarchy_role = ? AND active = ?", role, true).
		Order("created_at ASC").
		First(&vendor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) FindChildren(ctx context.Context, db *gorm.DB, parentID snowflake.ID) ([]vendordomain.Vendor, error) {
	var children []vendordomain.Vendor
	err := db.WithContext(ctx).Model(&vendordomain.Vendor{}).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&children).Error
	return children, err
}

func (r *repository) CountActiveSales(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, states []string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM miapass_subscriptions WHERE vendor_id = ? AND status IN ?`,
		vendorID,
		states,
	).Scan(&count).Error
	return count, err
}

func (r *repository) SumReferralEarnings(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, role string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := db.WithContext(ctx).Raw(
		`SELECT amount FROM miapass_commissions
		 WHERE vendor_id = ? AND role = ? AND status != 'REVERSED'`,
		vendorID,
		role,
	).Scan(&amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total, nil
}
