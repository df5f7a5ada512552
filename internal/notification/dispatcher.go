package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	"github.com/clinicamia/miapass/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dispatcherConsumerID = "notification_dispatcher"

// Dispatcher tails the billing event log and hands each event to the
// configured notifier. The consumer offset is advanced per event, so a
// crash replays at most the event in flight.
type Dispatcher struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	notifier  Notifier
	interval  time.Duration
	batchSize int
}

type DispatcherParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Config   config.Config
	Notifier Notifier
}

func NewDispatcher(p DispatcherParam) *Dispatcher {
	interval, err := time.ParseDuration(p.Config.Notifier.PollInterval)
	if err != nil || interval <= 0 {
		interval = 5 * time.Second
	}
	batchSize := p.Config.Notifier.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Dispatcher{
		db:        p.DB,
		log:       p.Log.Named("notification.dispatcher"),
		clock:     p.Clock,
		notifier:  p.Notifier,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.ProcessEvents(ctx); err != nil {
				d.log.Error("event processing pass failed", zap.Error(err))
			}
		}
	}
}

func (d *Dispatcher) ProcessEvents(ctx context.Context) error {
	lastID, err := d.getLastEventID(ctx)
	if err != nil {
		return err
	}

	var rows []struct {
		ID        snowflake.ID
		EventType string
		Payload   datatypes.JSON
	}
	err = d.db.WithContext(ctx).Raw(`
		SELECT id, event_type, payload
		FROM miapass_billing_events
		WHERE id > ?
		ORDER BY id ASC
		LIMIT ?
	`, lastID, d.batchSize).Scan(&rows).Error
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		var payload map[string]any
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			d.log.Error("malformed event payload, skipping",
				zap.String("event_id", row.ID.String()), zap.Error(err))
		} else if err := d.notifier.Notify(ctx, row.EventType, payload); err != nil {
			d.log.Warn("notifier failed",
				zap.String("event_id", row.ID.String()),
				zap.String("event_type", row.EventType),
				zap.Error(err))
		}

		// Advance per event; replaying one event on crash beats
		// replaying the batch.
		if err := d.updateLastEventID(ctx, row.ID); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) getLastEventID(ctx context.Context) (snowflake.ID, error) {
	var offset struct {
		LastEventID snowflake.ID
	}
	err := d.db.WithContext(ctx).Raw(
		"SELECT last_event_id FROM miapass_event_offsets WHERE consumer_id = ?",
		dispatcherConsumerID,
	).Scan(&offset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return offset.LastEventID, nil
}

func (d *Dispatcher) updateLastEventID(ctx context.Context, id snowflake.ID) error {
	return d.db.WithContext(ctx).Exec(`
		INSERT INTO miapass_event_offsets (consumer_id, last_event_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (consumer_id) DO UPDATE SET last_event_id = EXCLUDED.last_event_id, updated_at = EXCLUDED.updated_at
	`, dispatcherConsumerID, id, d.clock.Now(ctx)).Error
}
