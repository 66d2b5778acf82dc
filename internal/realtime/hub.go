package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Topic names. Event and question topics are suffixed with the entity id.
const (
	TopicModeration     = "moderation"
	TopicEventPrefix    = "event:"
	TopicQuestionPrefix = "question:"
)

// Message events pushed to subscribers.
const (
	EventSubmitted  = "event_submitted"
	EventModerated  = "event_moderated"
	EventUpdated    = "event_updated"
	CommentAdded    = "comment_added"
	QuestionAsked   = "question_asked"
	QuestionRemoved = "question_resolved"
)

// Hub maintains topic -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling when a publisher is configured.
type Hub struct {
	// topic -> map[clientID]*Client
	topics   map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per topic
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishTopicEvent(ctx context.Context, topic, event string, payload []byte) error
}

// RedisSubscriber subscribes to topic channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeTopic(topic string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		topics:   make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to its topic. Starts the Redis subscription for the topic if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.topics[c.Topic] == nil {
		h.topics[c.Topic] = make(map[string]*Client)
		if h.redisSub != nil {
			topic := c.Topic
			cancel, err := h.redisSub.SubscribeTopic(topic, func(event string, payload []byte) {
				h.Broadcast(topic, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("redis subscribe failed", zap.String("topic", topic), zap.Error(err))
			} else {
				h.subs[topic] = cancel
			}
		}
	}
	h.topics[c.Topic][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client subscribed", zap.String("client_id", c.ID), zap.String("topic", c.Topic))
}

// Unregister removes a client from its topic. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.topics[c.Topic]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.topics, c.Topic)
			if cancel, ok := h.subs[c.Topic]; ok {
				cancel()
				delete(h.subs, c.Topic)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left", zap.String("client_id", c.ID), zap.String("topic", c.Topic))
}

// Broadcast sends a message to all clients on a topic (local only).
func (h *Hub) Broadcast(topic, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("marshal broadcast payload", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.topics[topic] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every subscriber of topic on every instance. With Redis configured the
// subscriber callback performs the broadcast once for all instances, including this one.
func (h *Hub) Publish(ctx context.Context, topic, event string, payload interface{}) {
	if h.redis == nil {
		h.Broadcast(topic, event, payload)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal publish payload", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.redis.PublishTopicEvent(ctx, topic, event, data); err != nil {
		h.logger.Warn("redis publish failed, broadcasting locally", zap.String("topic", topic), zap.Error(err))
		h.Broadcast(topic, event, json.RawMessage(data))
	}
}

// Subscribers returns the number of local clients on a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
