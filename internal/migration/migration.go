// Package migration builds the MiaPass schema. AutoMigrate covers the
// models; the constraints gorm cannot express are applied as raw statements
// afterwards.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	coupondomain "github.com/clinicamia/miapass/internal/coupon/domain"
	"github.com/clinicamia/miapass/internal/events"
	plandomain "github.com/clinicamia/miapass/internal/plan/domain"
	settlementdomain "github.com/clinicamia/miapass/internal/settlement/domain"
	subscriptiondomain "github.com/clinicamia/miapass/internal/subscription/domain"
	vendordomain "github.com/clinicamia/miapass/internal/vendors/domain"
	"gorm.io/gorm"
)

// schemaLockKey is arbitrary but must stay stable across every MiaPass
// deployment; changing it lets two versions migrate concurrently.
const schemaLockKey int64 = 6_427_115_390

func Models() []any {
	return []any{
		&plandomain.Plan{},
		&coupondomain.Coupon{},
		&coupondomain.CouponPlan{},
		&vendordomain.Vendor{},
		&subscriptiondomain.Subscription{},
		&commissiondomain.Commission{},
		&settlementdomain.Settlement{},
		&events.BillingEvent{},
		&events.ConsumerOffset{},
	}
}

// RunMigrations applies the schema under a postgres advisory lock so two
// deploying instances never migrate concurrently.
func RunMigrations(db *gorm.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	postgres := db.Dialector.Name() == "postgres"

	if postgres {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		release, err := lockSchema(ctx, sqlDB)
		if err != nil {
			return err
		}
		defer release()
	}

	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return err
	}

	if postgres {
		return applyPartialIndexes(ctx, db)
	}
	return nil
}

// applyPartialIndexes adds the uniqueness rules that hold only for a subset
// of rows. AutoMigrate cannot express partial indexes.
func applyPartialIndexes(ctx context.Context, db *gorm.DB) error {
	// One active subscription per (subscriber, plan).
	err := db.WithContext(ctx).Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_subscription_per_subscriber_plan
		ON miapass_subscriptions (subscriber_id, plan_id)
		WHERE status = 'ACTIVE'
	`).Error
	if err != nil {
		return err
	}

	// One live commission per (subscription, role). REVERSED rows are
	// excluded so a reversed sale can be liquidated again.
	return db.WithContext(ctx).Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_live_commission_per_subscription_role
		ON miapass_commissions (subscription_id, role)
		WHERE status != 'REVERSED'
	`).Error
}

func lockSchema(ctx context.Context, db *sql.DB) (func(), error) {
	var locked bool
	if err := db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", schemaLockKey).Scan(&locked); err != nil {
		return nil, fmt.Errorf("schema lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another instance is migrating, schema lock held")
	}

	return func() {
		var released bool
		_ = db.QueryRowContext(context.Background(), "SELECT pg_advisory_unlock($1)", schemaLockKey).Scan(&released)
	}, nil
}
