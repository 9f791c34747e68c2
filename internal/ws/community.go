package ws

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/pkg/logger"
)

// Community channel event names
const (
	EventSendCommunity    = "send_community_message"
	EventReceiveCommunity = "receive_community_message"
	EventCommunityHistory = "community_chat_history"
)

const communitySendFailed = "❌ Failed to send message. Please try again."

// CommunityHandler runs the shared broadcast room. Persisted messages go to
// every joined connection; only failures are unicast back to the sender.
type CommunityHandler struct {
	store        MessageStore
	hub          *Hub
	historyLimit int
	log          *logger.Logger
}

// NewCommunityHandler creates the community channel handler
func NewCommunityHandler(store MessageStore, hub *Hub, historyLimit int, log *logger.Logger) *CommunityHandler {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &CommunityHandler{
		store:        store,
		hub:          hub,
		historyLimit: historyLimit,
		log:          log.WithComponent("community-chat"),
	}
}

// OnConnect delivers recent history to the new connection only
func (h *CommunityHandler) OnConnect(c *Client) {
	go func() {
		messages, err := h.store.Recent(context.Background(), models.ChannelCommunity, h.historyLimit)
		if err != nil {
			h.log.LogError(err, "failed to load community history", "client_id", c.ID)
			return
		}
		c.sendEvent(EventCommunityHistory, historyPayload(messages))
	}()
}

// HandleEvent dispatches one inbound frame
func (h *CommunityHandler) HandleEvent(c *Client, event Message) {
	switch event.Type {
	case EventSendCommunity:
		h.handleSend(c, event.Content)
	default:
		h.log.Warn("unknown event type", "type", event.Type, "client_id", c.ID)
	}
}

func (h *CommunityHandler) handleSend(c *Client, content json.RawMessage) {
	var in inboundChat
	if err := json.Unmarshal(content, &in); err != nil {
		h.log.Warn("discarding malformed chat content", "client_id", c.ID)
		return
	}

	if strings.TrimSpace(in.Text) == "" {
		return
	}

	author := in.User
	if author == "" {
		author = models.AnonymousCommunityUser
	}

	msg, err := h.store.Save(context.Background(), models.ChannelCommunity, author, in.Text)
	if err != nil {
		h.log.LogError(err, "failed to save community message", "client_id", c.ID)
		// The failure notice goes to the sender only, never the room.
		c.sendEvent(EventReceiveCommunity, chatPayload{
			User:      models.SystemName,
			Text:      communitySendFailed,
			Timestamp: time.Now(),
			Kind:      "error",
		})
		return
	}

	h.hub.BroadcastEvent(EventReceiveCommunity, payloadFrom(msg))
}
