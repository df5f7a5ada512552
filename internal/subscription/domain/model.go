// Package domain contains the MiaPass subscription model and its state
// machine vocabulary.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	// StatusActive is the only entry state; it counts as active for
	// duplicate checks and commissions.
	StatusActive Status = "ACTIVE"

	// Terminal states. A subscription reaches exactly one of them and
	// never transitions again.
	StatusCancelled Status = "CANCELLED"
	StatusAnnulled  Status = "ANNULLED"
	StatusRefunded  Status = "REFUNDED"

	// StatusExpired is assigned by an external time-based sweep once the
	// end date passes.
	StatusExpired Status = "EXPIRED"
)

// Sales channels.
const (
	ChannelInPerson    = "in-person"
	ChannelSocialMedia = "social-media"
	ChannelWebForm     = "web-form"
)

// Subscription is a sold membership. Vendor attribution, the amount paid
// and the commission base/VAT are snapshotted at sale time; later plan or
// policy edits never touch an existing row.
type Subscription struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	PlanID       snowflake.ID  `gorm:"not null;index:idx_subscription_subscriber_plan,priority:2" json:"plan_id"`
	SubscriberID snowflake.ID  `gorm:"not null;index:idx_subscription_subscriber_plan,priority:1" json:"subscriber_id"`
	VendorID     *snowflake.ID `gorm:"index" json:"vendor_id,omitempty"`

	// VendorCode preserves attribution even if the vendor is later
	// deactivated or deleted.
	VendorCode string `gorm:"type:text" json:"vendor_code,omitempty"`

	Channel       string          `gorm:"type:text;not null" json:"channel"`
	PaymentMethod string          `gorm:"type:text" json:"payment_method,omitempty"`
	StartAt       time.Time       `gorm:"not null" json:"start_at"`
	EndAt         time.Time       `gorm:"not null" json:"end_at"`
	Status        Status          `gorm:"type:text;not null;index" json:"status"`
	AmountPaid    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount_paid"`

	CommissionBase decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"commission_base"`
	CommissionVAT  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"commission_vat"`

	VoidReason string     `gorm:"type:text" json:"void_reason,omitempty"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Subscription) TableName() string { return "miapass_subscriptions" }

// IsTerminal reports whether the subscription has reached a state it can
// never leave.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusAnnulled, StatusRefunded, StatusExpired:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the terminal transition is allowed.
// Every terminal state is reachable only from ACTIVE and the terminal
// states are mutually exclusive.
func (s Status) CanTransitionTo(target Status) bool {
	if s != StatusActive {
		return false
	}
	return target.IsTerminal()
}
