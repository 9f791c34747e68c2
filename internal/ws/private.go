package ws

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/pkg/logger"
)

// Private channel event names
const (
	EventSendPrivate    = "send_private_message"
	EventReceivePrivate = "receive_private_message"
	EventPrivateHistory = "private_chat_history"
)

const (
	privateGreeting = "👋 Hello! I'm your AgriConnect AI assistant. How can I help with your farming today?"

	// Emitted when persistence or reply generation fails mid-conversation
	privateFallback = "🌱 I'm having a temporary issue, but I can still help! Here's some general farming advice: Always test your soil before planting, use crop rotation to maintain soil health, and consider drip irrigation to save water. What specific problem are you facing?"
)

// DefaultReplyTimeout is the outer bound on producing an assistant reply,
// layered over the responder's own call timeout.
const DefaultReplyTimeout = 15 * time.Second

// PrivateHandler runs the 1:1 user/assistant conversation. Every outbound
// event is a unicast to the originating connection; nothing is broadcast.
type PrivateHandler struct {
	store        MessageStore
	responder    Responder
	historyLimit int
	replyTimeout time.Duration
	log          *logger.Logger
}

// NewPrivateHandler creates the private channel handler
func NewPrivateHandler(store MessageStore, responder Responder, historyLimit int, replyTimeout time.Duration, log *logger.Logger) *PrivateHandler {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	if replyTimeout <= 0 {
		replyTimeout = DefaultReplyTimeout
	}
	return &PrivateHandler{
		store:        store,
		responder:    responder,
		historyLimit: historyLimit,
		replyTimeout: replyTimeout,
		log:          log.WithComponent("private-chat"),
	}
}

// OnConnect greets the new connection, then delivers recent history to it.
// The greeting is not persisted. A history load failure is logged and the
// connection stays usable.
func (h *PrivateHandler) OnConnect(c *Client) {
	c.sendEvent(EventReceivePrivate, chatPayload{
		User:      models.AssistantName,
		Text:      privateGreeting,
		Timestamp: time.Now(),
	})

	go func() {
		messages, err := h.store.Recent(context.Background(), models.ChannelPrivate, h.historyLimit)
		if err != nil {
			h.log.LogError(err, "failed to load private history", "client_id", c.ID)
			return
		}
		c.sendEvent(EventPrivateHistory, historyPayload(messages))
	}()
}

// HandleEvent dispatches one inbound frame
func (h *PrivateHandler) HandleEvent(c *Client, event Message) {
	switch event.Type {
	case EventSendPrivate:
		h.handleSend(c, event.Content)
	default:
		h.log.Warn("unknown event type", "type", event.Type, "client_id", c.ID)
	}
}

func (h *PrivateHandler) handleSend(c *Client, content json.RawMessage) {
	var in inboundChat
	if err := json.Unmarshal(content, &in); err != nil {
		h.log.Warn("discarding malformed chat content", "client_id", c.ID)
		return
	}

	// Empty messages are dropped silently: no persistence, no echo, no error.
	if strings.TrimSpace(in.Text) == "" {
		return
	}

	author := in.User
	if author == "" {
		author = models.AnonymousPrivateUser
	}

	ctx := context.Background()

	userMsg, err := h.store.Save(ctx, models.ChannelPrivate, author, in.Text)
	if err != nil {
		h.log.LogError(err, "failed to save user message", "client_id", c.ID)
		h.sendFallback(c)
		return
	}
	c.sendEvent(EventReceivePrivate, payloadFrom(userMsg))

	// Outer deadline on the reply, racing the responder's own call timeout.
	// Cancellation propagates into the remote call; the responder degrades
	// to a canned reply rather than erroring.
	replyCtx, cancel := context.WithTimeout(ctx, h.replyTimeout)
	defer cancel()
	replyText := h.responder.Respond(replyCtx, userMsg.Text)

	replyMsg, err := h.store.Save(ctx, models.ChannelPrivate, models.AssistantName, replyText)
	if err != nil {
		h.log.LogError(err, "failed to save assistant reply", "client_id", c.ID)
		h.sendFallback(c)
		return
	}
	c.sendEvent(EventReceivePrivate, payloadFrom(replyMsg))
}

// sendFallback persists and emits the fixed fallback reply. The emit happens
// even when the save fails: the conversation degrades, it never goes silent.
func (h *PrivateHandler) sendFallback(c *Client) {
	msg, err := h.store.Save(context.Background(), models.ChannelPrivate, models.AssistantName, privateFallback)
	if err != nil {
		h.log.LogError(err, "failed to save fallback reply", "client_id", c.ID)
		c.sendEvent(EventReceivePrivate, chatPayload{
			User:      models.AssistantName,
			Text:      privateFallback,
			Timestamp: time.Now(),
		})
		return
	}
	c.sendEvent(EventReceivePrivate, payloadFrom(msg))
}
