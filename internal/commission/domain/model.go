// Package domain contains the commission records produced by liquidating a
// MiaPass subscription and the payout policy applied to them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	vendordomain "github.com/clinicamia/miapass/internal/vendors/domain"
	"github.com/shopspring/decimal"
)

// Role identifies who a commission is owed to and why.
type Role string

const (
	RoleSeller           Role = "SELLER"
	RoleReferrerL1       Role = "REFERRER_L1"
	RoleReferrerL2       Role = "REFERRER_L2"
	RoleDirectorTotal    Role = "DIRECTOR_TOTAL"
	RoleDirectorSocial   Role = "DIRECTOR_SOCIAL"
	RoleCommunityManager Role = "COMMUNITY_MANAGER"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSettled  Status = "SETTLED"
	StatusPaid     Status = "PAID"
	StatusReversed Status = "REVERSED"
)

// Commission is a single monetary obligation created by liquidation. Base
// is the subscription's frozen commission base, never the plan's current
// price. Rate is a decimal fraction (0.25, not 25); fixed-amount awards
// carry rate 0.
type Commission struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	SubscriptionID snowflake.ID    `gorm:"not null;index" json:"subscription_id"`
	VendorID       snowflake.ID    `gorm:"not null;index" json:"vendor_id"`
	Role           Role            `gorm:"type:text;not null" json:"role"`
	Base           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"base"`
	Rate           decimal.Decimal `gorm:"type:numeric(6,4);not null" json:"rate"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status         Status          `gorm:"type:text;not null;index" json:"status"`
	ReversalReason string          `gorm:"type:text" json:"reversal_reason,omitempty"`
	ReversedAt     *time.Time      `json:"reversed_at,omitempty"`
	SettlementID   *snowflake.ID   `gorm:"index" json:"settlement_id,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

func (Commission) TableName() string { return "miapass_commissions" }

// VendorStanding summarizes a vendor's current month, rate tier and
// referral network.
type VendorStanding struct {
	VendorID         snowflake.ID         `json:"vendor_id"`
	MonthToDateSales int64                `json:"month_to_date_sales"`
	MonthlyThreshold int                  `json:"monthly_threshold"`
	Tier             string               `json:"tier"`
	CurrentRate      decimal.Decimal      `json:"current_rate"`
	Network          vendordomain.Network `json:"network"`
}

// StatusAmount is one commission's status and amount, the raw material for
// aggregate views.
type StatusAmount struct {
	Status Status
	Amount decimal.Decimal
}

// Overview is the back-office dashboard aggregate over every subscription
// and commission.
type Overview struct {
	TotalSubscriptions  int64 `json:"total_subscriptions"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	VoidedSubscriptions int64 `json:"voided_subscriptions"`

	TotalCommissions int64           `json:"total_commissions"`
	PendingAmount    decimal.Decimal `json:"pending_amount"`
	SettledAmount    decimal.Decimal `json:"settled_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	ReversedAmount   decimal.Decimal `json:"reversed_amount"`
}

// VendorCommissions is a vendor's commission history with aggregate totals
// per state.
type VendorCommissions struct {
	VendorID      snowflake.ID    `json:"vendor_id"`
	Commissions   []Commission    `json:"commissions"`
	TotalPending  decimal.Decimal `json:"total_pending"`
	TotalSettled  decimal.Decimal `json:"total_settled"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalReversed decimal.Decimal `json:"total_reversed"`
}
