package domain

import (
	"testing"

	"github.com/clinicamia/miapass/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierRate(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name     string
		sales    int64
		wantTier string
		wantRate string
	}{
		{"no sales", 0, TierBase, "0.25"},
		{"exactly at threshold", 30, TierBase, "0.25"},
		{"one over threshold", 31, TierOverThreshold, "0.3"},
		{"well over threshold", 120, TierOverThreshold, "0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, rate := policy.TierRate(tt.sales)
			assert.Equal(t, tt.wantTier, tier)
			assert.Equal(t, tt.wantRate, rate.String())
		})
	}
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	assert.Equal(t, "199900", policy.CommissionBase.String())
	assert.Equal(t, "37981", policy.CommissionVAT.String())
	assert.Equal(t, 30, policy.MonthlyThreshold)
	assert.Equal(t, "10000", policy.ReferralL1Amount.String())
	assert.Equal(t, "5000", policy.ReferralL2Amount.String())
	assert.Equal(t, "social-media", policy.SocialChannel)
	assert.Equal(t, []string{"ACTIVE"}, policy.ActiveStates)

	// Seller award at the base tier.
	assert.Equal(t, "49975", policy.CommissionBase.Mul(policy.BaseRate).String())
}

func TestPolicyFromConfig(t *testing.T) {
	t.Run("empty config keeps defaults", func(t *testing.T) {
		policy, err := PolicyFromConfig(config.CommissionConfig{})
		require.NoError(t, err)
		assert.Equal(t, DefaultPolicy(), policy)
	})

	t.Run("overrides apply", func(t *testing.T) {
		policy, err := PolicyFromConfig(config.CommissionConfig{
			BaseRate:         "0.20",
			MonthlyThreshold: 50,
			SocialChannel:    "instagram",
			ActiveStates:     []string{"ACTIVE", "TRIAL"},
		})
		require.NoError(t, err)
		assert.True(t, policy.BaseRate.Equal(decimal.RequireFromString("0.20")))
		assert.Equal(t, 50, policy.MonthlyThreshold)
		assert.Equal(t, "instagram", policy.SocialChannel)
		assert.Equal(t, []string{"ACTIVE", "TRIAL"}, policy.ActiveStates)
		// Untouched fields fall back to the default.
		assert.True(t, policy.OverThresholdRate.Equal(decimal.RequireFromString("0.30")))
	})

	t.Run("malformed rate rejected", func(t *testing.T) {
		_, err := PolicyFromConfig(config.CommissionConfig{BaseRate: "a quarter"})
		require.Error(t, err)
	})
}
