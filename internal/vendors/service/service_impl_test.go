package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	"github.com/clinicamia/miapass/internal/config"
	subscriptiondomain "github.com/clinicamia/miapass/internal/subscription/domain"
	vendordomain "github.com/clinicamia/miapass/internal/vendors/domain"
	"github.com/clinicamia/miapass/internal/vendors/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (vendordomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&vendordomain.Vendor{},
		&subscriptiondomain.Subscription{},
		&commissiondomain.Commission{},
	))

	svc := NewService(ServiceParam{
		DB:  db,
		Log: zap.NewNop(),
		Config: config.Config{Commission: config.CommissionConfig{
			ActiveStates: []string{"ACTIVE"},
		}},
		Repo: repository.Provide(),
	})
	return svc, db
}

func seedVendor(t *testing.T, db *gorm.DB, id snowflake.ID, code string, parentID *snowflake.ID) vendordomain.Vendor {
	t.Helper()
	vendor := vendordomain.Vendor{
		ID:           id,
		Name:         "vendor " + code,
		ReferralCode: code,
		ParentID:     parentID,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, db.Create(&vendor).Error)
	return vendor
}

func seedSale(t *testing.T, db *gorm.DB, id, vendorID snowflake.ID, status subscriptiondomain.Status) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&subscriptiondomain.Subscription{
		ID:             id,
		PlanID:         1,
		SubscriberID:   id + 10_000,
		VendorID:       &vendorID,
		Channel:        subscriptiondomain.ChannelInPerson,
		StartAt:        now,
		EndAt:          now.AddDate(0, 1, 0),
		Status:         status,
		AmountPaid:     decimal.NewFromInt(199900),
		CommissionBase: decimal.NewFromInt(199900),
		CommissionVAT:  decimal.NewFromInt(37981),
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error)
}

func TestGetNetwork(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	root := seedVendor(t, db, 1, "ROOT", nil)
	childA := seedVendor(t, db, 2, "A", &root.ID)
	childB := seedVendor(t, db, 3, "B", &root.ID)
	grandchild := seedVendor(t, db, 4, "AA", &childA.ID)
	// Third level exists in storage but is outside payout scope.
	seedVendor(t, db, 5, "AAA", &grandchild.ID)

	seedSale(t, db, 100, childA.ID, subscriptiondomain.StatusActive)
	seedSale(t, db, 101, childA.ID, subscriptiondomain.StatusActive)
	seedSale(t, db, 102, childB.ID, subscriptiondomain.StatusCancelled)
	seedSale(t, db, 103, grandchild.ID, subscriptiondomain.StatusActive)

	require.NoError(t, db.Create(&commissiondomain.Commission{
		ID: 200, SubscriptionID: 100, VendorID: root.ID,
		Role: commissiondomain.RoleReferrerL1,
		Base: decimal.NewFromInt(199900), Rate: decimal.Zero,
		Amount: decimal.NewFromInt(10000),
		Status: commissiondomain.StatusPending,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}).Error)
	require.NoError(t, db.Create(&commissiondomain.Commission{
		ID: 201, SubscriptionID: 103, VendorID: root.ID,
		Role: commissiondomain.RoleReferrerL2,
		Base: decimal.NewFromInt(199900), Rate: decimal.Zero,
		Amount: decimal.NewFromInt(5000),
		Status: commissiondomain.StatusReversed,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}).Error)

	network, err := svc.GetNetwork(ctx, root.ID)
	require.NoError(t, err)

	assert.Len(t, network.Level1, 2)
	assert.Len(t, network.Level2, 1)
	assert.Equal(t, int64(2), network.Level1ActiveSales, "cancelled sales do not count")
	assert.Equal(t, int64(1), network.Level2ActiveSales)
	assert.Equal(t, "10000", network.Level1Earnings.String())
	assert.Equal(t, "0", network.Level2Earnings.String(), "reversed earnings excluded")
}

func TestGetNetworkUnknownVendor(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetNetwork(context.Background(), 999)
	assert.ErrorIs(t, err, vendordomain.ErrVendorNotFound)
}

func TestGetUpline(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	greatGrandparent := seedVendor(t, db, 1, "GGP", nil)
	grandparent := seedVendor(t, db, 2, "GP", &greatGrandparent.ID)
	parent := seedVendor(t, db, 3, "P", &grandparent.ID)
	vendor := seedVendor(t, db, 4, "V", &parent.ID)

	upline, err := svc.GetUpline(ctx, vendor.ID)
	require.NoError(t, err)
	require.NotNil(t, upline.Parent)
	require.NotNil(t, upline.Grandparent)
	assert.Equal(t, parent.ID, upline.Parent.ID)
	assert.Equal(t, grandparent.ID, upline.Grandparent.ID)

	t.Run("orphan has no upline", func(t *testing.T) {
		upline, err := svc.GetUpline(ctx, greatGrandparent.ID)
		require.NoError(t, err)
		assert.Nil(t, upline.Parent)
		assert.Nil(t, upline.Grandparent)
	})
}

func TestGetUplineCycle(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	// a -> b -> a, broken data that must not hang the resolver.
	a := seedVendor(t, db, 1, "CYC_A", nil)
	b := seedVendor(t, db, 2, "CYC_B", &a.ID)
	require.NoError(t, db.Model(&vendordomain.Vendor{}).
		Where("id = ?", a.ID).Update("parent_id", b.ID).Error)

	upline, err := svc.GetUpline(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, upline.Parent)
	assert.Equal(t, b.ID, upline.Parent.ID)
	assert.Nil(t, upline.Grandparent, "cycle truncates the walk")
}
