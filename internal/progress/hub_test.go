package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *recordingSink) Consume(_ context.Context, evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *recordingSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func validEvent(stage Stage) Event {
	return Event{
		RunID: UUIDToBytes(uuid.New()),
		TS:    time.Now().UTC(),
		Stage: stage,
		URL:   "https://example.com/x",
	}
}

func TestHubDeliversAndDrainsOnClose(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	hub := NewHub(nil, sink)

	for i := 0; i < 10; i++ {
		hub.Emit(validEvent(StageEntrySkipped))
	}
	require.NoError(t, hub.Close(context.Background()))

	got := sink.snapshot()
	assert.Len(t, got, 10)
	assert.True(t, sink.closed)
}

func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	hub := NewHub(nil, sink)

	hub.Emit(Event{Stage: StageEntrySaved}) // missing run id, timestamp, url
	require.NoError(t, hub.Close(context.Background()))

	assert.Empty(t, sink.snapshot())
}

func TestHubEmitAfterCloseIsNoop(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	hub := NewHub(nil, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(validEvent(StageEntrySkipped))
	assert.Empty(t, sink.snapshot())
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	runID := UUIDToBytes(uuid.New())
	now := time.Now().UTC()

	tests := []struct {
		name    string
		evt     Event
		wantErr bool
	}{
		{"RunStart", Event{RunID: runID, TS: now, Stage: StageRunStart}, false},
		{"SavedComplete", Event{RunID: runID, TS: now, Stage: StageEntrySaved, URL: "u", Artifact: "a"}, false},
		{"SavedMissingArtifact", Event{RunID: runID, TS: now, Stage: StageEntrySaved, URL: "u"}, true},
		{"ErrorMissingURL", Event{RunID: runID, TS: now, Stage: StageEntryError}, true},
		{"MissingRunID", Event{TS: now, Stage: StageRunStart}, true},
		{"UnknownStage", Event{RunID: runID, TS: now, Stage: "WAT"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.evt.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
