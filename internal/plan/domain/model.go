// Package domain contains the MiaPass plan catalog model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Plan is a sellable membership plan. Price edits never propagate to
// subscriptions already sold; the lifecycle snapshots everything it needs at
// sale time.
type Plan struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"type:text;not null" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	DurationMonths int             `gorm:"not null" json:"duration_months"`
	Color          string          `gorm:"type:text" json:"color,omitempty"`
	Icon           string          `gorm:"type:text" json:"icon,omitempty"`
	Benefits       datatypes.JSON  `gorm:"type:jsonb" json:"benefits,omitempty"`
	Discounts      datatypes.JSON  `gorm:"type:jsonb" json:"discounts,omitempty"`
	Featured       bool            `gorm:"not null;default:false" json:"featured"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

func (Plan) TableName() string { return "miapass_plans" }
