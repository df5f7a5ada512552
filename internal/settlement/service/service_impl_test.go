package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	commissiondomain "github.com/clinicamia/miapass/internal/commission/domain"
	"github.com/clinicamia/miapass/internal/events"
	settlementdomain "github.com/clinicamia/miapass/internal/settlement/domain"
	settlementrepo "github.com/clinicamia/miapass/internal/settlement/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type batcherFixture struct {
	svc   settlementdomain.Service
	db    *gorm.DB
	genID *snowflake.Node
}

func newBatcherFixture(t *testing.T) *batcherFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&commissiondomain.Commission{},
		&settlementdomain.Settlement{},
		&events.BillingEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed{T: testNow},
		Repo:  settlementrepo.Provide(),
	})
	return &batcherFixture{svc: svc, db: db, genID: node}
}

func (f *batcherFixture) seedCommission(t *testing.T, vendorID snowflake.ID, amount int64, status commissiondomain.Status, createdAt time.Time) commissiondomain.Commission {
	t.Helper()
	c := commissiondomain.Commission{
		ID:             f.genID.Generate(),
		SubscriptionID: f.genID.Generate(),
		VendorID:       vendorID,
		Role:           commissiondomain.RoleSeller,
		Base:           decimal.NewFromInt(199900),
		Rate:           decimal.RequireFromString("0.25"),
		Amount:         decimal.NewFromInt(amount),
		Status:         status,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func TestGenerateSettlement(t *testing.T) {
	f := newBatcherFixture(t)
	ctx := context.Background()
	vendor := f.genID.Generate()
	actor := f.genID.Generate()

	inPeriod := testNow
	a := f.seedCommission(t, vendor, 49975, commissiondomain.StatusPending, inPeriod)
	b := f.seedCommission(t, vendor, 10000, commissiondomain.StatusPending, inPeriod)
	// Outside the window or already terminal, all left alone.
	early := f.seedCommission(t, vendor, 11111, commissiondomain.StatusPending, time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC))
	reversed := f.seedCommission(t, vendor, 22222, commissiondomain.StatusReversed, inPeriod)

	settlement, err := f.svc.Generate(ctx, "2026-03", actor)
	require.NoError(t, err)
	assert.Equal(t, "2026-03", settlement.Period)
	assert.Equal(t, settlementdomain.StatusClosed, settlement.Status)
	assert.Equal(t, actor, settlement.PreparedBy)
	assert.Equal(t, testNow, settlement.CutAt)
	assert.True(t, settlement.Total.Equal(decimal.NewFromInt(59975)), "got %s", settlement.Total)

	for _, id := range []snowflake.ID{a.ID, b.ID} {
		var c commissiondomain.Commission
		require.NoError(t, f.db.Where("id = ?", id).First(&c).Error)
		assert.Equal(t, commissiondomain.StatusSettled, c.Status)
		require.NotNil(t, c.SettlementID)
		assert.Equal(t, settlement.ID, *c.SettlementID)
	}
	for _, id := range []snowflake.ID{early.ID, reversed.ID} {
		var c commissiondomain.Commission
		require.NoError(t, f.db.Where("id = ?", id).First(&c).Error)
		assert.Nil(t, c.SettlementID)
	}

	var emitted int64
	require.NoError(t, f.db.Model(&events.BillingEvent{}).
		Where("event_type = ?", events.EventSettlementGenerated).Count(&emitted).Error)
	assert.Equal(t, int64(1), emitted)
}

func TestGenerateEmptyPeriod(t *testing.T) {
	f := newBatcherFixture(t)
	ctx := context.Background()
	vendor := f.genID.Generate()
	actor := f.genID.Generate()

	f.seedCommission(t, vendor, 49975, commissiondomain.StatusPending, testNow)

	_, err := f.svc.Generate(ctx, "2026-03", actor)
	require.NoError(t, err)

	// Everything in the period is already settled, a rerun finds nothing.
	_, err = f.svc.Generate(ctx, "2026-03", actor)
	assert.ErrorIs(t, err, settlementdomain.ErrEmptySettlement)

	_, err = f.svc.Generate(ctx, "2026-04", actor)
	assert.ErrorIs(t, err, settlementdomain.ErrEmptySettlement)
}

func TestGenerateInvalidPeriod(t *testing.T) {
	f := newBatcherFixture(t)
	for _, period := range []string{"", "march", "2026-3", "2026-13", "03-2026"} {
		_, err := f.svc.Generate(context.Background(), period, 1)
		assert.ErrorIs(t, err, settlementdomain.ErrInvalidPeriod, "period %q", period)
	}
}

func TestGetSettlement(t *testing.T) {
	f := newBatcherFixture(t)
	ctx := context.Background()

	f.seedCommission(t, f.genID.Generate(), 49975, commissiondomain.StatusPending, testNow)
	settlement, err := f.svc.Generate(ctx, "2026-03", 1)
	require.NoError(t, err)

	found, err := f.svc.Get(ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, settlement.ID, found.ID)

	_, err = f.svc.Get(ctx, 424242)
	assert.ErrorIs(t, err, settlementdomain.ErrSettlementNotFound)
}

func TestListSettlements(t *testing.T) {
	f := newBatcherFixture(t)
	ctx := context.Background()

	f.seedCommission(t, f.genID.Generate(), 100, commissiondomain.StatusPending, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	f.seedCommission(t, f.genID.Generate(), 200, commissiondomain.StatusPending, testNow)

	_, err := f.svc.Generate(ctx, "2026-02", 1)
	require.NoError(t, err)
	second, err := f.svc.Generate(ctx, "2026-03", 1)
	require.NoError(t, err)

	settlements, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, settlements, 2)
	assert.Equal(t, second.ID, settlements[0].ID, "newest first")
}

func TestPayoutHistory(t *testing.T) {
	f := newBatcherFixture(t)
	ctx := context.Background()
	vendor := f.genID.Generate()
	other := f.genID.Generate()

	f.seedCommission(t, vendor, 49975, commissiondomain.StatusPending, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	f.seedCommission(t, vendor, 10000, commissiondomain.StatusPending, testNow)
	f.seedCommission(t, vendor, 5000, commissiondomain.StatusPending, testNow)
	f.seedCommission(t, other, 999, commissiondomain.StatusPending, testNow)

	first, err := f.svc.Generate(ctx, "2026-02", 1)
	require.NoError(t, err)
	second, err := f.svc.Generate(ctx, "2026-03", 1)
	require.NoError(t, err)

	payouts, err := f.svc.PayoutHistory(ctx, vendor)
	require.NoError(t, err)
	require.Len(t, payouts, 2)

	assert.Equal(t, first.ID, payouts[0].Settlement.ID)
	assert.True(t, payouts[0].Amount.Equal(decimal.NewFromInt(49975)))
	assert.Equal(t, 1, payouts[0].Count)

	assert.Equal(t, second.ID, payouts[1].Settlement.ID)
	assert.True(t, payouts[1].Amount.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, 2, payouts[1].Count)

	none, err := f.svc.PayoutHistory(ctx, f.genID.Generate())
	require.NoError(t, err)
	assert.Empty(t, none)
}
