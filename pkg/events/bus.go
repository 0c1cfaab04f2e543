package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"notehub-engine/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Bus is the engine's in-process publish/subscribe channel. Each event name is
// a watermill topic. Publishing never blocks on subscribers and events
// published with no subscriber are dropped.
type Bus struct {
	pubSub *gochannel.GoChannel
	log    logger.ILogger
}

var _ Publisher = (*Bus)(nil)

func NewBus(log logger.ILogger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		logger.NewWatermillAdapter(log),
	)
	return &Bus{pubSub: pubSub, log: log}
}

func (b *Bus) Publish(evt Event) {
	data, err := json.Marshal(envelope{
		Type:       evt.EventType(),
		Data:       evt.Payload(),
		OccurredAt: evt.Timestamp(),
	})
	if err != nil {
		b.log.Warn("EventBus", "Failed to marshal event", map[string]interface{}{"type": evt.EventType(), "error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.pubSub.Publish(evt.EventType(), msg); err != nil {
		b.log.Warn("EventBus", "Failed to publish event", map[string]interface{}{"type": evt.EventType(), "error": err.Error()})
	}
}

// Subscribe merges the given event types into one channel. The channel is
// closed once ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, types ...string) (<-chan Event, error) {
	out := make(chan Event, 64)
	var wg sync.WaitGroup

	for _, t := range types {
		messages, err := b.pubSub.Subscribe(ctx, t)
		if err != nil {
			return nil, err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range messages {
				var env envelope
				if err := json.Unmarshal(msg.Payload, &env); err != nil {
					b.log.Warn("EventBus", "Dropping undecodable event", map[string]interface{}{"topic": t, "error": err.Error()})
					msg.Ack()
					continue
				}
				msg.Ack()

				select {
				case out <- BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
