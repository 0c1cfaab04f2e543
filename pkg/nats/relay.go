package nats

import (
	"context"
	"time"

	"notehub-engine/internal/pkg/logger"
	"notehub-engine/pkg/events"
)

// EventSource is the subscribing side of the in-process bus.
type EventSource interface {
	Subscribe(ctx context.Context, types ...string) (<-chan events.Event, error)
}

// EventSink accepts events for delivery elsewhere.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// Relay forwards every bus event to sink until ctx is done. Delivery
// failures are logged and the event is dropped.
func Relay(ctx context.Context, source EventSource, sink EventSink, log logger.ILogger) error {
	ch, err := source.Subscribe(ctx, events.AllTypes...)
	if err != nil {
		return err
	}

	go func() {
		for evt := range ch {
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := sink.Publish(pubCtx, evt)
			cancel()
			if err != nil {
				log.Warn("NatsRelay", "Failed to forward event", map[string]interface{}{
					"type":  evt.EventType(),
					"error": err.Error(),
				})
			}
		}
	}()
	return nil
}
