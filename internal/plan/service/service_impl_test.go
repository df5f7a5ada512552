package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	plandomain "github.com/clinicamia/miapass/internal/plan/domain"
	planrepo "github.com/clinicamia/miapass/internal/plan/repository"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) plandomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&plandomain.Plan{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed{T: testNow},
		Repo:  planrepo.Provide(),
	})
}

func createPlan(t *testing.T, svc plandomain.Service, name string, months int) plandomain.Plan {
	t.Helper()
	plan, err := svc.Create(context.Background(), plandomain.CreatePlanRequest{
		Name:           name,
		Price:          decimal.NewFromInt(199900),
		DurationMonths: months,
	})
	require.NoError(t, err)
	return plan
}

func TestCreatePlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	plan, err := svc.Create(ctx, plandomain.CreatePlanRequest{
		Name:           "  MiaPass Anual  ",
		Price:          decimal.NewFromInt(199900),
		DurationMonths: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, "MiaPass Anual", plan.Name)
	assert.True(t, plan.Active, "new plans are sellable immediately")
	assert.Equal(t, testNow, plan.CreatedAt)

	for _, req := range []plandomain.CreatePlanRequest{
		{Name: "", Price: decimal.NewFromInt(100), DurationMonths: 1},
		{Name: "x", Price: decimal.NewFromInt(100), DurationMonths: 0},
		{Name: "x", Price: decimal.NewFromInt(-1), DurationMonths: 1},
	} {
		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, plandomain.ErrInvalidPlan)
	}
}

func TestGetActivePlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	plan := createPlan(t, svc, "Anual", 12)

	found, err := svc.GetActive(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, found.ID)

	toggled, err := svc.Toggle(ctx, plan.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	_, err = svc.GetActive(ctx, plan.ID)
	assert.ErrorIs(t, err, plandomain.ErrPlanInactive)

	// Get still serves retired plans for back office reads.
	_, err = svc.Get(ctx, plan.ID)
	assert.NoError(t, err)

	_, err = svc.GetActive(ctx, 424242)
	assert.ErrorIs(t, err, plandomain.ErrPlanNotFound)
}

func TestUpdatePlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	plan := createPlan(t, svc, "Anual", 12)

	name := "Anual Plus"
	price := decimal.NewFromInt(249900)
	updated, err := svc.Update(ctx, plan.ID, plandomain.UpdatePlanRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Anual Plus", updated.Name)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, 12, updated.DurationMonths, "untouched fields survive partial updates")

	empty := "  "
	_, err = svc.Update(ctx, plan.ID, plandomain.UpdatePlanRequest{Name: &empty})
	assert.ErrorIs(t, err, plandomain.ErrInvalidPlan)

	zero := 0
	_, err = svc.Update(ctx, plan.ID, plandomain.UpdatePlanRequest{DurationMonths: &zero})
	assert.ErrorIs(t, err, plandomain.ErrInvalidPlan)
}

func TestListPlans(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	createPlan(t, svc, "Anual", 12)
	semestral := createPlan(t, svc, "Semestral", 6)
	_, err := svc.Toggle(ctx, semestral.ID)
	require.NoError(t, err)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	activeOnly := true
	active, err := svc.List(ctx, &activeOnly)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Anual", active[0].Name)
}
