package notification

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clinicamia/miapass/internal/clock"
	"github.com/clinicamia/miapass/internal/config"
	"github.com/clinicamia/miapass/internal/events"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type capturedEvent struct {
	eventType string
	payload   map[string]any
}

type captureNotifier struct {
	events []capturedEvent
	fail   bool
}

func (n *captureNotifier) Notify(_ context.Context, eventType string, payload map[string]any) error {
	n.events = append(n.events, capturedEvent{eventType: eventType, payload: payload})
	if n.fail {
		return assert.AnError
	}
	return nil
}

func newDispatcherFixture(t *testing.T, notifier Notifier) (*Dispatcher, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&events.BillingEvent{}, &events.ConsumerOffset{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	dispatcher := NewDispatcher(DispatcherParam{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clock.Fixed{T: testNow},
		Config:   config.Config{Notifier: config.NotifierConfig{PollInterval: "10ms", BatchSize: 2}},
		Notifier: notifier,
	})
	return dispatcher, db, node
}

func emit(t *testing.T, db *gorm.DB, node *snowflake.Node, eventType string, payload map[string]any) snowflake.ID {
	t.Helper()
	id := node.Generate()
	require.NoError(t, events.Emit(context.Background(), db, id, eventType, payload, testNow))
	return id
}

func lastOffset(t *testing.T, db *gorm.DB) snowflake.ID {
	t.Helper()
	var offset events.ConsumerOffset
	require.NoError(t, db.Where("consumer_id = ?", dispatcherConsumerID).First(&offset).Error)
	return offset.LastEventID
}

func TestProcessEvents(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher, db, node := newDispatcherFixture(t, notifier)
	ctx := context.Background()

	emit(t, db, node, events.EventSubscriptionCreated, map[string]any{"subscription_id": "1"})
	second := emit(t, db, node, events.EventSubscriptionCancelled, map[string]any{"subscription_id": "1"})

	require.NoError(t, dispatcher.ProcessEvents(ctx))
	require.Len(t, notifier.events, 2)
	assert.Equal(t, events.EventSubscriptionCreated, notifier.events[0].eventType)
	assert.Equal(t, "1", notifier.events[0].payload["subscription_id"])
	assert.Equal(t, events.EventSubscriptionCancelled, notifier.events[1].eventType)
	assert.Equal(t, second, lastOffset(t, db))

	// A second pass with nothing new delivers nothing.
	require.NoError(t, dispatcher.ProcessEvents(ctx))
	assert.Len(t, notifier.events, 2)

	// New events resume after the stored offset.
	third := emit(t, db, node, events.EventSettlementGenerated, map[string]any{"period": "2026-03"})
	require.NoError(t, dispatcher.ProcessEvents(ctx))
	require.Len(t, notifier.events, 3)
	assert.Equal(t, events.EventSettlementGenerated, notifier.events[2].eventType)
	assert.Equal(t, third, lastOffset(t, db))
}

func TestProcessEventsHonorsBatchSize(t *testing.T) {
	notifier := &captureNotifier{}
	dispatcher, db, node := newDispatcherFixture(t, notifier)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		emit(t, db, node, events.EventSubscriptionCreated, map[string]any{"n": float64(i)})
	}

	require.NoError(t, dispatcher.ProcessEvents(ctx))
	assert.Len(t, notifier.events, 2)

	require.NoError(t, dispatcher.ProcessEvents(ctx))
	require.NoError(t, dispatcher.ProcessEvents(ctx))
	assert.Len(t, notifier.events, 5)
}

func TestProcessEventsAdvancesPastFailures(t *testing.T) {
	notifier := &captureNotifier{fail: true}
	dispatcher, db, node := newDispatcherFixture(t, notifier)
	ctx := context.Background()

	id := emit(t, db, node, events.EventSubscriptionCreated, map[string]any{"subscription_id": "1"})

	// Delivery is best effort: a failing notifier does not wedge the log.
	require.NoError(t, dispatcher.ProcessEvents(ctx))
	assert.Equal(t, id, lastOffset(t, db))

	require.NoError(t, dispatcher.ProcessEvents(ctx))
	assert.Len(t, notifier.events, 1, "failed events are not redelivered")
}

func TestDispatcherDefaults(t *testing.T) {
	dispatcher := NewDispatcher(DispatcherParam{
		DB:       nil,
		Log:      zap.NewNop(),
		Clock:    clock.Fixed{T: testNow},
		Config:   config.Config{},
		Notifier: &captureNotifier{},
	})
	assert.Equal(t, 5*time.Second, dispatcher.interval)
	assert.Equal(t, 50, dispatcher.batchSize)
}
