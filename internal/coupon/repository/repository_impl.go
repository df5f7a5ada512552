package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	coupondomain "github.com/clinicamia/miapass/internal/coupon/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() coupondomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, coupon *coupondomain.Coupon) error {
	if err := db.WithContext(ctx).Create(coupon).Error; err != nil {
		return err
	}
	return r.insertPlanLinks(ctx, db, coupon.ID, coupon.PlanIDs)
}

func (r *repository) FindByCode(ctx context.Context, db *gorm.DB, code string) (*coupondomain.Coupon, error) {
	var coupon coupondomain.Coupon
	err := db.WithContext(ctx).Model(&coupondomain.Coupon{}).
		Where("code = ?", code).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadPlanIDs(ctx, db, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*coupondomain.Coupon, error) {
	var coupon coupondomain.Coupon
	err := db.WithContext(ctx).Model(&coupondomain.Coupon{}).
		Where("id = ?", id).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadPlanIDs(ctx, db, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB) ([]coupondomain.Coupon, error) {
	var coupons []coupondomain.Coupon
	err := db.WithContext(ctx).Model(&coupondomain.Coupon{}).
		Order("created_at DESC").
		Find(&coupons).Error
	if err != nil {
		return nil, err
	}
	for i := range coupons {
		if err := r.loadPlanIDs(ctx, db, &coupons[i]); err != nil {
			return nil, err
		}
	}
	return coupons, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, coupon *coupondomain.Coupon) error {
	return db.WithContext(ctx).Save(coupon).Error
}

func (r *repository) ReplacePlans(ctx context.Context, db *gorm.DB, couponID snowflake.ID, planIDs []snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("coupon_id = ?", couponID).
		Delete(&coupondomain.CouponPlan{}).Error; err != nil {
		return err
	}
	return r.insertPlanLinks(ctx, db, couponID, planIDs)
}

func (r *repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("coupon_id = ?", id).
		Delete(&coupondomain.CouponPlan{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&coupondomain.Coupon{}).Error
}

func (r *repository) IncrementUsage(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE miapass_coupons
		 SET uses = uses + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND uses < max_uses`,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) insertPlanLinks(ctx context.Context, db *gorm.DB, couponID snowflake.ID, planIDs []snowflake.ID) error {
	if len(planIDs) == 0 {
		return nil
	}
	links := make([]coupondomain.CouponPlan, 0, len(planIDs))
	for _, planID := range planIDs {
		links = append(links, coupondomain.CouponPlan{CouponID: couponID, PlanID: planID})
	}
	return db.WithContext(ctx).Create(&links).Error
}

func (r *repository) loadPlanIDs(ctx context.Context, db *gorm.DB, coupon *coupondomain.Coupon) error {
	var planIDs []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT plan_id FROM miapass_coupon_plans WHERE coupon_id = ?`,
		coupon.ID,
	).Scan(&planIDs).Error
	if err != nil {
		return err
	}
	coupon.PlanIDs = planIDs
	return nil
}
