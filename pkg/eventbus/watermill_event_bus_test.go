package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/journeyhq/journey/pkg/channels/gochannel"
	"github.com/journeyhq/journey/pkg/events"
)

func newTestBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return NewWatermillEventBus(pub, sub)
}

func TestWatermillEventBus_PublishSubscribe(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *events.ExecutionSuspended, 1)

	err := bus.Handle(events.ExecutionSuspendedEvent, func(_ context.Context, event any) error {
		suspended, ok := event.(*events.ExecutionSuspended)
		require.True(t, ok)

		received <- suspended

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	resumeAt := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	err = bus.Publish(ctx, "exec-1", events.ExecutionSuspended{
		BaseEvent: events.BaseEvent{
			ID:          "evt-1",
			Type:        events.ExecutionSuspendedEvent,
			WorkflowID:  "wf-1",
			ExecutionID: "exec-1",
			SubjectID:   "subject-1",
		},
		NodeID:   "wait-1",
		ResumeAt: resumeAt,
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "exec-1", event.ExecutionID)
		assert.Equal(t, "wait-1", event.NodeID)
		assert.True(t, event.ResumeAt.Equal(resumeAt))
	case <-ctx.Done():
		t.Fatal("timed out waiting for suspended event")
	}
}

func TestWatermillEventBus_UnhandledEventTypeIsAcked(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	handled := make(chan struct{}, 1)

	err := bus.Handle(events.ExecutionCompletedEvent, func(context.Context, any) error {
		handled <- struct{}{}

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for launched events; the message is dropped.
	err = bus.Publish(ctx, "exec-1", events.ExecutionLaunched{
		BaseEvent: events.BaseEvent{ID: "evt-1", Type: events.ExecutionLaunchedEvent},
	})
	require.NoError(t, err)

	err = bus.Publish(ctx, "exec-1", events.ExecutionCompleted{
		BaseEvent: events.BaseEvent{ID: "evt-2", Type: events.ExecutionCompletedEvent},
	})
	require.NoError(t, err)

	select {
	case <-handled:
	case <-ctx.Done():
		t.Fatal("timed out waiting for completed event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := newTestBus(t)

	assert.NotEmpty(t, bus.GenerateID())
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
