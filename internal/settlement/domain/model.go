// Package domain contains the settlement batch ("corte") model. A batch
// snapshots the PENDING commissions of one period and is immutable once
// created.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const StatusClosed = "CLOSED"

type Settlement struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	Period     string          `gorm:"type:text;not null;index" json:"period"`
	Total      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	PreparedBy snowflake.ID    `gorm:"not null" json:"prepared_by"`
	Status     string          `gorm:"type:text;not null" json:"status"`
	CutAt      time.Time       `gorm:"not null" json:"cut_at"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
}

func (Settlement) TableName() string { return "miapass_settlements" }

// VendorPayout is one settlement as seen from a single vendor: the batch
// plus the vendor's share of it.
type VendorPayout struct {
	Settlement Settlement      `json:"settlement"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
}
