package ws

import (
	"context"
	"encoding/json"
	"sync"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/pkg/logger"
	"agriconnect/backend/pkg/metrics"
)

// MessageStore is the persistence surface the channel handlers depend on
type MessageStore interface {
	Save(ctx context.Context, channel models.Channel, user, text string) (*models.ChatMessage, error)
	Recent(ctx context.Context, channel models.Channel, limit int) ([]models.ChatMessage, error)
}

// Responder produces assistant replies. Implementations never fail; a
// degraded reply string is always returned.
type Responder interface {
	Respond(ctx context.Context, userInput string) string
}

// ChannelHandler implements the per-namespace chat policy
type ChannelHandler interface {
	// OnConnect runs once per new connection, before the read pump starts
	OnConnect(c *Client)
	// HandleEvent processes one inbound event frame
	HandleEvent(c *Client, event Message)
}

// Hub owns the membership of one chat namespace and fans out broadcasts.
// Membership changes and broadcast delivery are serialized through Run.
type Hub struct {
	channel    models.Channel
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	log        *logger.Logger
}

// NewHub creates a hub for the given channel
func NewHub(channel models.Channel, log *logger.Logger) *Hub {
	return &Hub{
		channel:    channel,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.WithComponent("ws-" + string(channel)),
	}
}

// Channel returns the namespace this hub serves
func (h *Hub) Channel() models.Channel {
	return h.channel
}

// Run processes membership and broadcast events until the process exits
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.Connections.WithLabelValues(string(h.channel)).Inc()
			h.log.Info("client connected", "client_id", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				metrics.Connections.WithLabelValues(string(h.channel)).Dec()
				h.log.Info("client disconnected", "client_id", client.ID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					client.close()
					delete(h.clients, client)
					metrics.Connections.WithLabelValues(string(h.channel)).Dec()
					h.log.Warn("client dropped, send buffer full", "client_id", client.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastEvent delivers an event to every connection currently joined to
// this namespace, including the sender.
func (h *Hub) BroadcastEvent(eventType string, content any) {
	frame, err := json.Marshal(outboundMessage{Type: eventType, Content: content})
	if err != nil {
		h.log.LogError(err, "failed to marshal broadcast event", "type", eventType)
		return
	}
	h.broadcast <- frame
}
