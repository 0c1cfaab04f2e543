package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"notehub-engine/internal/pkg/logger"
	"notehub-engine/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "notehub:cluster_events"

type eventMessage struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type clusterMessage struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

// EventSource is the subscribing side of the in-process bus.
type EventSource interface {
	Subscribe(ctx context.Context, types ...string) (<-chan events.Event, error)
}

// Hub pushes engine events to every connected websocket client. With Redis
// configured, events are also fanned out to other engine instances.
type Hub struct {
	instanceId string

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		instanceId: uuid.NewString(),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
		logger:     log,
	}
}

// Run serves registrations until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.Id})

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.Id})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Forward broadcasts every bus event until ctx is done.
func (h *Hub) Forward(ctx context.Context, source EventSource) error {
	ch, err := source.Subscribe(ctx, events.AllTypes...)
	if err != nil {
		return err
	}
	go func() {
		for evt := range ch {
			h.Broadcast(evt)
		}
	}()
	return nil
}

func (h *Hub) Broadcast(evt events.Event) {
	data, err := json.Marshal(eventMessage{
		Type:       evt.EventType(),
		Data:       evt.Payload(),
		OccurredAt: evt.Timestamp(),
	})
	if err != nil {
		h.logger.Warn("Hub", "Failed to marshal event", map[string]interface{}{"type": evt.EventType(), "error": err.Error()})
		return
	}

	h.deliverLocal(data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceId, Message: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish to cluster", map[string]interface{}{"error": err.Error()})
		}
	}
}

// deliverLocal drops clients whose send buffer is full.
func (h *Hub) deliverLocal(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"client_id": client.Id})
			h.drop(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Cluster message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceId {
			continue
		}
		h.deliverLocal(payload.Message)
	}
}
