package domain

import (
	"github.com/clinicamia/miapass/internal/config"
	"github.com/shopspring/decimal"
)

const (
	TierBase          = "base"
	TierOverThreshold = "over_threshold"
)

// Policy is the immutable MIA PASS payout policy. It is built once from
// configuration and injected into the engine; tests construct their own to
// vary policy without touching logic.
type Policy struct {
	BaseRate          decimal.Decimal
	OverThresholdRate decimal.Decimal
	MonthlyThreshold  int

	ReferralL1Amount decimal.Decimal
	ReferralL2Amount decimal.Decimal

	DirectorTotalRate    decimal.Decimal
	DirectorSocialRate   decimal.Decimal
	CommunityManagerRate decimal.Decimal

	// CommissionBase and CommissionVAT are snapshotted onto every new
	// subscription so later policy changes never alter historical
	// commissions.
	CommissionBase decimal.Decimal
	CommissionVAT  decimal.Decimal

	SocialChannel string
	ActiveStates  []string
}

// DefaultPolicy returns MIA PASS policy v1.1.
func DefaultPolicy() Policy {
	return Policy{
		BaseRate:             decimal.RequireFromString("0.25"),
		OverThresholdRate:    decimal.RequireFromString("0.30"),
		MonthlyThreshold:     30,
		ReferralL1Amount:     decimal.NewFromInt(10000),
		ReferralL2Amount:     decimal.NewFromInt(5000),
		DirectorTotalRate:    decimal.RequireFromString("0.06"),
		DirectorSocialRate:   decimal.RequireFromString("0.10"),
		CommunityManagerRate: decimal.RequireFromString("0.05"),
		CommissionBase:       decimal.NewFromInt(199900),
		CommissionVAT:        decimal.NewFromInt(37981),
		SocialChannel:        "social-media",
		ActiveStates:         []string{"ACTIVE"},
	}
}

// PolicyFromConfig parses the configured policy, falling back to the
// default for any field left empty.
func PolicyFromConfig(cfg config.CommissionConfig) (Policy, error) {
	p := DefaultPolicy()

	assign := func(dst *decimal.Decimal, raw string) error {
		if raw == "" {
			return nil
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return err
		}
		*dst = value
		return nil
	}

	if err := assign(&p.BaseRate, cfg.BaseRate); err != nil {
		return Policy{}, err
	}
	if err := assign(&p.OverThresholdRate, cfg.OverThresholdRate); err != nil {
		return Policy{}, err
	}
	if err := assign(&p.ReferralL1Amount, cfg.ReferralL1Amount); err != nil {
		return Policy{}, err
	}
	if err := assign(&p.ReferralL2Amount, cfg.ReferralL2Amount); err != nil {
		return Policy{}, err
	}
	if err := assign(&p.DirectorTotalRate, cfg.DirectorTotalRate); err != nil {
		return Policy{}, err
	}
	if err := assign(&p.DirectorSocialRate, cfg.DirectorSocialRate); err != nil {
		return Policy{}, err
	}
	if err := assign(&p.CommunityManagerRate, cfg.CommunityManagerRate); err != nil {
		return Policy{}, err
	}
	if err := assign(&p.CommissionBase, cfg.CommissionBase); err != nil {
		return Policy{}, err
	}
	if err := assign(&p.CommissionVAT, cfg.CommissionVAT); err != nil {
		return Policy{}, err
	}
	if cfg.MonthlyThreshold > 0 {
		p.MonthlyThreshold = cfg.MonthlyThreshold
	}
	if cfg.SocialChannel != "" {
		p.SocialChannel = cfg.SocialChannel
	}
	if len(cfg.ActiveStates) > 0 {
		p.ActiveStates = cfg.ActiveStates
	}

	return p, nil
}

// TierRate selects the seller rate for the given month-to-date sales count,
// the liquidated sale included.
func (p Policy) TierRate(monthToDateSales int64) (string, decimal.Decimal) {
	if monthToDateSales > int64(p.MonthlyThreshold) {
		return TierOverThreshold, p.OverThresholdRate
	}
	return TierBase, p.BaseRate
}
