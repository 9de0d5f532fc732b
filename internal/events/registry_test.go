package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Unmarshal(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventEpisodeAdded, func() Event { return &EpisodeAdded{} })

	raw := RawEvent{
		EventType: EventEpisodeAdded,
		Payload:   `{"type":"library.episode_added","entity_type":"episode","entity_id":7,"occurred_at":"2024-01-01T00:00:00Z","episode_id":7,"series":"Futurama","season":1,"episode":2,"path":"/tv/Futurama/S01E02.mkv"}`,
	}

	event, err := registry.Unmarshal(raw)
	require.NoError(t, err)

	added, ok := event.(*EpisodeAdded)
	require.True(t, ok)
	assert.Equal(t, int64(7), added.EpisodeID)
	assert.Equal(t, "Futurama", added.Series)
	assert.Equal(t, 2, added.Episode)
}

func TestRegistry_UnmarshalUnknownType(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Unmarshal(RawEvent{EventType: "unknown.event", Payload: `{}`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestRegistry_UnmarshalInvalidJSON(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventScanRequested, func() Event { return &ScanRequested{} })

	_, err := registry.Unmarshal(RawEvent{EventType: EventScanRequested, Payload: `{invalid json`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal event payload")
}

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	eventTypes := []string{
		EventEpisodeAdded,
		EventEpisodeRemoved,
		EventLibraryScanned,
		EventScanRequested,
		EventScanStarted,
		EventScanCompleted,
		EventSeasonFailed,
		EventSegmentsErased,
	}

	for _, eventType := range eventTypes {
		t.Run(eventType, func(t *testing.T) {
			raw := RawEvent{
				EventType: eventType,
				Payload:   `{"type":"` + eventType + `","entity_type":"scan","entity_id":1,"occurred_at":"2024-01-01T00:00:00Z"}`,
			}
			event, err := registry.Unmarshal(raw)
			require.NoError(t, err, "Failed to unmarshal %s", eventType)
			assert.Equal(t, eventType, event.EventType())
		})
	}
}

func TestRegistry_UnmarshalScanCompleted(t *testing.T) {
	registry := DefaultRegistry()

	raw := RawEvent{
		EventType: EventScanCompleted,
		Payload:   `{"type":"scan.completed","entity_type":"scan","entity_id":0,"occurred_at":"2024-01-01T12:00:00Z","run_id":"abc","processed":40,"queued":42,"seasons_failed":1,"diagnostics":"None"}`,
	}

	event, err := registry.Unmarshal(raw)
	require.NoError(t, err)

	completed, ok := event.(*ScanCompleted)
	require.True(t, ok)
	assert.Equal(t, "abc", completed.RunID)
	assert.Equal(t, int64(40), completed.Processed)
	assert.Equal(t, 1, completed.SeasonsFailed)
}

func TestRegistry_HasAndTypes(t *testing.T) {
	registry := NewRegistry()
	registry.Register(EventScanStarted, func() Event { return &ScanStarted{} })
	registry.Register(EventEpisodeAdded, func() Event { return &EpisodeAdded{} })

	assert.True(t, registry.Has(EventScanStarted))
	assert.False(t, registry.Has("download.completed"))
	assert.Equal(t, []string{EventEpisodeAdded, EventScanStarted}, registry.Types())
}
