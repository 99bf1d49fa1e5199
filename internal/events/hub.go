package events

import (
	"encoding/json"
	"time"

	"pharma-backend/internal/engine"
	"pharma-backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PushMessage is the envelope delivered to every WebSocket subscriber.
type PushMessage struct {
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	MessageID string                 `json:"message_id"`
	Data      engine.TransitionEvent `json:"data"`
}

// Subscriber is one registered client. Send is a buffered channel the
// connection handler drains; a full buffer drops the message rather than
// stalling the hub.
type Subscriber struct {
	ID   string
	Send chan []byte
}

// NewSubscriber allocates a subscriber with a buffered send channel.
func NewSubscriber() *Subscriber {
	return &Subscriber{
		ID:   uuid.NewString(),
		Send: make(chan []byte, 64),
	}
}

// Hub broadcasts accepted transitions to all registered subscribers. It
// implements engine.Publisher so it can sit directly behind the engine.
type Hub struct {
	logger *logrus.Logger

	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan PushMessage
	subscribers map[*Subscriber]bool
}

// NewHub creates a hub and starts its dispatch loop.
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Hub{
		logger:      logger,
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan PushMessage, 256),
		subscribers: make(map[*Subscriber]bool),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case sub := <-h.register:
			h.subscribers[sub] = true
			metrics.WebSocketClientsConnected.Set(float64(len(h.subscribers)))
			h.logger.WithField("subscriber_id", sub.ID).Info("📱 WebSocket subscriber registered")

		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.Send)
			}
			metrics.WebSocketClientsConnected.Set(float64(len(h.subscribers)))
			h.logger.WithField("subscriber_id", sub.ID).Info("📱 WebSocket subscriber unregistered")

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.WithError(err).Warn("push message marshal failed")
				continue
			}
			for sub := range h.subscribers {
				select {
				case sub.Send <- data:
					metrics.WebSocketMessagesPushed.Inc()
				default:
					// slow consumer, drop
					h.logger.WithField("subscriber_id", sub.ID).Warn("subscriber buffer full, message dropped")
				}
			}
		}
	}
}

// Register adds a subscriber to the fanout set.
func (h *Hub) Register(sub *Subscriber) {
	h.register <- sub
}

// Unregister removes a subscriber and closes its send channel.
func (h *Hub) Unregister(sub *Subscriber) {
	h.unregister <- sub
}

// PublishTransition implements engine.Publisher.
func (h *Hub) PublishTransition(evt engine.TransitionEvent) {
	msg := PushMessage{
		Type:      "batch_transition",
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: uuid.NewString(),
		Data:      evt,
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("hub broadcast buffer full, message dropped")
	}
}

// Fanout forwards each transition to every configured publisher. Nil
// entries are skipped so callers can wire NATS and WebSocket independently.
type Fanout []engine.Publisher

// PublishTransition implements engine.Publisher.
func (f Fanout) PublishTransition(evt engine.TransitionEvent) {
	for _, p := range f {
		if p != nil {
			p.PublishTransition(evt)
		}
	}
}
