package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"notehub-engine/internal/pkg/logger"
	"notehub-engine/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan struct{}) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	return hub, cancel, done
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	a := &Client{Hub: hub, Id: "a", Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, Id: "b", Send: make(chan []byte, 4)}
	hub.register <- a
	hub.register <- b
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(events.New(events.DocumentDeleted, map[string]interface{}{"document_id": "n1"}))

	for _, c := range []*Client{a, b} {
		var msg eventMessage
		require.NoError(t, json.Unmarshal(<-c.Send, &msg))
		assert.Equal(t, events.DocumentDeleted, msg.Type)
		assert.Equal(t, "n1", msg.Data["document_id"])
	}

	cancel()
	<-done
	_, open := <-a.Send
	assert.False(t, open)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, cancel, done := startHub(t)
	slow := &Client{Hub: hub, Id: "slow", Send: make(chan []byte, 1)}
	hub.register <- slow
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(events.New(events.Warning, nil))
	hub.Broadcast(events.New(events.Warning, nil))

	assert.Equal(t, 0, hub.ClientCount())
	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)

	// Unregistering an already dropped client is a no-op.
	hub.unregister <- slow

	cancel()
	<-done
}

func TestHub_ForwardsBusEvents(t *testing.T) {
	log := logger.NewNopLogger()
	bus := events.NewBus(log)
	defer bus.Close()

	hub, cancel, done := startHub(t)
	defer func() {
		cancel()
		<-done
	}()

	c := &Client{Hub: hub, Id: "c", Send: make(chan []byte, 4)}
	hub.register <- c
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	require.NoError(t, hub.Forward(ctx, bus))

	bus.Publish(events.New(events.TabsChanged, map[string]interface{}{"active_id": "n1"}))

	select {
	case raw := <-c.Send:
		var msg eventMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, events.TabsChanged, msg.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event not forwarded")
	}
}
