package events_test

import (
	"encoding/json"
	"testing"

	"timeTracker/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(4)

	id := uuid.New()
	bus.Publish(events.ListReady(true))
	bus.Publish(events.TaskHidden(id))

	first := <-ch
	second := <-ch
	assert.Equal(t, events.KindListReady, first.Kind)
	assert.True(t, first.HasAnyTask)
	assert.Equal(t, id, second.TaskID)

	unsubscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)
}

func TestBus_FullBufferDropsEvent(t *testing.T) {
	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe(1)
	defer unsubscribe()

	bus.Publish(events.QueueCountChanged(1))
	bus.Publish(events.QueueCountChanged(2))

	got := <-ch
	require.Equal(t, 1, got.Count)
	assert.Equal(t, 1, bus.Dropped())
}

func TestEvent_MarshalJSON(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		event    events.Event
		expected string
	}{
		{
			name:     "list ready keeps false flag",
			event:    events.ListReady(false),
			expected: `{"kind":"list_ready","has_any_task":false}`,
		},
		{
			name:     "queue count keeps zero",
			event:    events.QueueCountChanged(0),
			expected: `{"kind":"queue_count_changed","count":0}`,
		},
		{
			name:     "task hidden carries only task id",
			event:    events.TaskHidden(id),
			expected: `{"kind":"task_hidden","task_id":"` + id.String() + `"}`,
		},
		{
			name:     "token activated",
			event:    events.TokenActivated(id, "JIRA-1"),
			expected: `{"kind":"token_activated","task_id":"` + id.String() + `","token":"JIRA-1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))

			var decoded events.Event
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.event, decoded)
		})
	}
}
