// Package domain contains the vendor (seller) model and the referral
// network types. Vendors form a forest through ParentID; storage enforces no
// depth or cycle limit, so every traversal must be explicitly bounded.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Hierarchy roles that earn fixed-role commissions.
const (
	RoleDirector         = "director"
	RoleCommunityManager = "community_manager"
)

type Vendor struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"type:text;not null" json:"name"`
	Email         string        `gorm:"type:text" json:"email,omitempty"`
	ReferralCode  string        `gorm:"type:text;uniqueIndex" json:"referral_code"`
	ParentID      *snowflake.ID `gorm:"index" json:"parent_id,omitempty"`
	HierarchyRole string        `gorm:"type:text;index" json:"hierarchy_role,omitempty"`
	Active        bool          `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

func (Vendor) TableName() string { return "miapass_vendors" }

// NetworkMember is one vendor in the referral network plus their sales
// standing.
type NetworkMember struct {
	Vendor      Vendor `json:"vendor"`
	ActiveSales int64  `json:"active_sales"`
}

// Network is the two-level downline of a vendor together with the referral
// commissions the vendor has earned from it.
type Network struct {
	VendorID snowflake.ID    `json:"vendor_id"`
	Level1   []NetworkMember `json:"level1"`
	Level2   []NetworkMember `json:"level2"`

	Level1ActiveSales int64 `json:"level1_active_sales"`
	Level2ActiveSales int64 `json:"level2_active_sales"`

	// Referral commissions earned by the vendor, reversed ones excluded.
	Level1Earnings decimal.Decimal `json:"level1_earnings"`
	Level2Earnings decimal.Decimal `json:"level2_earnings"`
}

// Upline is a vendor's referral ancestry bounded to two hops.
type Upline struct {
	Parent      *Vendor
	Grandparent *Vendor
}
