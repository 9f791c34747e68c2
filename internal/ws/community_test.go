package ws

import (
	"testing"
	"time"

	"agriconnect/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(models.ChannelCommunity, testLogger())
	go hub.Run()
	return hub
}

func joinHub(hub *Hub, c *Client) {
	c.hub = hub
	hub.register <- c
}

func TestCommunityBroadcastReachesEveryMember(t *testing.T) {
	hub := newRunningHub(t)
	store := newFakeStore()
	h := NewCommunityHandler(store, hub, 50, testLogger())

	sender := newTestClient()
	listener := newTestClient()
	listener.ID = "listener"
	joinHub(hub, sender)
	joinHub(hub, listener)

	h.HandleEvent(sender, sendEventFrame(EventSendCommunity, "Farmer Joe", "market day tomorrow"))

	for _, c := range []*Client{sender, listener} {
		msg := readFrame(t, c)
		assert.Equal(t, EventReceiveCommunity, msg.Type)
		payload := decodeChat(t, msg)
		assert.Equal(t, "Farmer Joe", payload.User)
		assert.Equal(t, "market day tomorrow", payload.Text)
		assert.NotZero(t, payload.ID, "broadcasts carry the persisted message")
	}

	saved := store.savedMessages()
	require.Len(t, saved, 1)
	assert.Equal(t, models.ChannelCommunity, saved[0].channel)
}

func TestCommunityStoreFailureNotifiesSenderOnly(t *testing.T) {
	hub := newRunningHub(t)
	store := newFakeStore()
	store.failAfter = 0
	h := NewCommunityHandler(store, hub, 50, testLogger())

	sender := newTestClient()
	listener := newTestClient()
	listener.ID = "listener"
	joinHub(hub, sender)
	joinHub(hub, listener)

	h.HandleEvent(sender, sendEventFrame(EventSendCommunity, "Farmer Joe", "anyone selling seed?"))

	notice := decodeChat(t, readFrame(t, sender))
	assert.Equal(t, models.SystemName, notice.User)
	assert.Equal(t, communitySendFailed, notice.Text)
	assert.Equal(t, "error", notice.Kind)

	// Give a stray broadcast time to land before asserting silence.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, listener.send, "failures never reach the rest of the room")
}

func TestCommunityOnConnectSendsHistory(t *testing.T) {
	hub := newRunningHub(t)
	store := newFakeStore()
	store.recent = []models.ChatMessage{
		{ID: 1, User: "Farmer Joe", Text: "rain is coming", Channel: models.ChannelCommunity},
		{ID: 2, User: "Farmer Amina", Text: "finally", Channel: models.ChannelCommunity},
	}
	h := NewCommunityHandler(store, hub, 50, testLogger())
	c := newTestClient()

	h.OnConnect(c)

	msg := readFrame(t, c)
	assert.Equal(t, EventCommunityHistory, msg.Type)
	messages := decodeHistory(t, msg)
	require.Len(t, messages, 2)
	assert.Equal(t, "rain is coming", messages[0].Text)
	assert.Equal(t, "finally", messages[1].Text)
}

func TestCommunityDefaultsAnonymousAuthor(t *testing.T) {
	hub := newRunningHub(t)
	store := newFakeStore()
	h := NewCommunityHandler(store, hub, 50, testLogger())
	c := newTestClient()
	joinHub(hub, c)

	h.HandleEvent(c, sendEventFrame(EventSendCommunity, "", "hello all"))

	payload := decodeChat(t, readFrame(t, c))
	assert.Equal(t, models.AnonymousCommunityUser, payload.User)
}

func TestCommunityEmptyTextIsDroppedSilently(t *testing.T) {
	hub := newRunningHub(t)
	store := newFakeStore()
	h := NewCommunityHandler(store, hub, 50, testLogger())
	c := newTestClient()
	joinHub(hub, c)

	h.HandleEvent(c, sendEventFrame(EventSendCommunity, "Farmer Joe", "  "))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.send)
	assert.Empty(t, store.savedMessages())
}
