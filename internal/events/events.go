// Package events is the append-only outbound event log. Lifecycle services
// write events inside their own transactions; consumers tail the log with a
// per-consumer offset, so delivery concerns never touch the sale path.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventSubscriptionAnnulled  = "subscription.annulled"
	EventSubscriptionRefunded  = "subscription.refunded"
	EventSettlementGenerated   = "settlement.generated"
)

type BillingEvent struct {
	ID        snowflake.ID   `gorm:"primaryKey"`
	EventType string         `gorm:"type:text;not null;index"`
	Payload   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"not null"`
}

func (BillingEvent) TableName() string { return "miapass_billing_events" }

type ConsumerOffset struct {
	ConsumerID  string       `gorm:"primaryKey;type:text"`
	LastEventID snowflake.ID `gorm:"not null"`
	UpdatedAt   time.Time    `gorm:"not null"`
}

func (ConsumerOffset) TableName() string { return "miapass_event_offsets" }

// Emit appends one event. Call it with the transaction handle of the write
// it belongs to so the event commits or rolls back with it.
func Emit(ctx context.Context, db *gorm.DB, id snowflake.ID, eventType string, payload map[string]any, at time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(&BillingEvent{
		ID:        id,
		EventType: eventType,
		Payload:   datatypes.JSON(raw),
		CreatedAt: at,
	}).Error
}
