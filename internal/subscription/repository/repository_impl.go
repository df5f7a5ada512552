package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/clinicamia/miapass/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

func Provide() subscriptiondomain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Create(subscription).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db, id, false)
}

func (r *repository) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	return r.findOne(ctx, db, id, true)
}

func (r *repository) findOne(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*subscriptiondomain.Subscription, error) {
	q := db.WithContext(ctx).Model(&subscriptiondomain.Subscription{})
	if forUpdate && db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var subscription subscriptiondomain.Subscription
	err := q.Where("id = ?", id).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) FindBySubscriberAndPlan(ctx context.Context, db *gorm.DB, subscriberID, planID snowflake.ID, states []string) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Model(&subscriptiondomain.Subscription{}).
		Where("subscriber_id = ? AND plan_id = ? AND status IN ?", subscriberID, planID, states).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, filter subscriptiondomain.ListFilter) ([]subscriptiondomain.Subscription, error) {
	q := db.WithContext(ctx).Model(&subscriptiondomain.Subscription{}).Order("created_at DESC")
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.VendorID != nil {
		q = q.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.SubscriberID != nil {
		q = q.Where("subscriber_id = ?", *filter.SubscriberID)
	}

	var subscriptions []subscriptiondomain.Subscription
	if err := q.Find(&subscriptions).Error; err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repository) CountByStatus(ctx context.Context, db *gorm.DB) (map[subscriptiondomain.Status]int64, error) {
	var rows []struct {
		Status subscriptiondomain.Status
		Count  int64
	}
	err := db.WithContext(ctx).
		Raw(`SELECT status, COUNT(*) AS count FROM miapass_subscriptions GROUP BY status`).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[subscriptiondomain.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *repository) UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE miapass_subscriptions
		 SET status = ?, void_reason = ?, voided_at = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.Status,
		subscription.VoidReason,
		subscription.VoidedAt,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}
