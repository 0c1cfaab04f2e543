package nats

import (
	"context"
	"sync"
	"testing"
	"time"

	"notehub-engine/internal/pkg/logger"
	"notehub-engine/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu   sync.Mutex
	seen []events.Event
}

func (c *captureSink) Publish(_ context.Context, evt events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, evt)
	return nil
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func TestDecode_Envelope(t *testing.T) {
	body := []byte(`{"type":"document.deleted","data":{"document_id":"n1"},"occurred_at":"2026-01-02T03:04:05Z"}`)

	evt, err := Decode("events.document.deleted", body)
	require.NoError(t, err)
	assert.Equal(t, events.DocumentDeleted, evt.Type)
	assert.Equal(t, "n1", evt.Data["document_id"])
	assert.Equal(t, 2026, evt.OccurredAt.Year())
}

func TestDecode_BarePayloadUsesSubject(t *testing.T) {
	evt, err := Decode("events.document.mutated", []byte(`{"document_id":"n2","actor":"assistant"}`))
	require.NoError(t, err)
	assert.Equal(t, "document.mutated", evt.Type)
	assert.Equal(t, "assistant", evt.Data["actor"])
	assert.False(t, evt.OccurredAt.IsZero())
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode("events.x", []byte("not json"))
	assert.Error(t, err)
}

func TestRelay_ForwardsBusEvents(t *testing.T) {
	log := logger.NewNopLogger()
	bus := events.NewBus(log)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &captureSink{}
	require.NoError(t, Relay(ctx, bus, sink, log))

	bus.Publish(events.New(events.DocumentCreated, map[string]interface{}{"document_id": "n1"}))
	bus.Publish(events.New(events.Warning, map[string]interface{}{"message": "x"}))

	assert.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 10*time.Millisecond)
}
