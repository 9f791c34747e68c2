package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/pkg/logger"
	"agriconnect/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Message is an inbound event frame
type Message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// outboundMessage is an event frame on its way to a client
type outboundMessage struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// inboundChat is the content of a send_*_message event
type inboundChat struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// chatPayload is the wire form of a chat message
type chatPayload struct {
	ID        uint      `json:"id,omitempty"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"type,omitempty"`
}

func payloadFrom(m *models.ChatMessage) chatPayload {
	return chatPayload{
		ID:        m.ID,
		User:      m.User,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
}

func historyPayload(messages []models.ChatMessage) []chatPayload {
	payload := make([]chatPayload, 0, len(messages))
	for i := range messages {
		payload = append(payload, payloadFrom(&messages[i]))
	}
	return payload
}

// Client is one WebSocket connection bound to a single channel. It holds no
// state beyond its identity and its send queue.
type Client struct {
	ID        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	hub       *Hub
	handler   ChannelHandler
	log       *logger.Logger
}

// close marks the client as disconnected. The send channel itself is never
// closed: a handler may still be mid-flight on an assistant reply or a
// history load, and its late unicast must drop harmlessly rather than panic
// on a closed channel.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// sendEvent queues an event frame for unicast delivery to this client only.
// Events for a disconnected client are dropped.
func (c *Client) sendEvent(eventType string, content any) {
	select {
	case <-c.done:
		return
	default:
	}

	frame, err := json.Marshal(outboundMessage{Type: eventType, Content: content})
	if err != nil {
		c.log.LogError(err, "failed to marshal event", "type", eventType)
		return
	}

	select {
	case c.send <- frame:
	case <-c.done:
	default:
		c.log.Warn("send buffer full, dropping event", "type", eventType)
	}
}

// readPump reads frames off the connection and dispatches them. Each event is
// handled in its own goroutine, so replies to rapidly-sent messages may
// interleave; per-connection ordering is not enforced.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.LogError(err, "read failed")
			}
			break
		}

		var event Message
		if err := json.Unmarshal(frame, &event); err != nil {
			c.log.Warn("discarding malformed frame", "error", err.Error())
			continue
		}

		go c.handler.HandleEvent(c, event)
	}
}

// writePump serializes all writes to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an HTTP request to a WebSocket connection on the given hub
func ServeWs(hub *Hub, handler ChannelHandler, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.LogError(err, "connection upgrade failed")
		return
	}

	client := &Client{
		ID:      uuid.New().String(),
		conn:    conn,
		send:    make(chan []byte, 256),
		done:    make(chan struct{}),
		hub:     hub,
		handler: handler,
	}
	client.log = hub.log.WithConnectionID(client.ID).
		WithRequestID(middleware.GetRequestID(c.Request.Context()))

	hub.register <- client

	go client.writePump()

	handler.OnConnect(client)

	go client.readPump()
}
