package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Channel identifies the chat namespace a message belongs to
type Channel string

const (
	// ChannelPrivate is the 1:1 user/assistant conversation
	ChannelPrivate Channel = "private"
	// ChannelCommunity is the shared broadcast room
	ChannelCommunity Channel = "community"
)

// Valid reports whether the channel is one of the known namespaces
func (c Channel) Valid() bool {
	return c == ChannelPrivate || c == ChannelCommunity
}

// ErrInvalidChannel is returned when a message carries an unknown channel
var ErrInvalidChannel = errors.New("invalid chat channel")

// Display names attached to messages when the client omits one
const (
	AnonymousPrivateUser   = "Anonymous Farmer"
	AnonymousCommunityUser = "Community Farmer"
	AssistantName          = "AgriBot 🤖"
	SystemName             = "System"
)

// ChatMessage is a persisted chat message. Messages are append-only:
// once created they are never updated or deleted.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Channel   Channel   `gorm:"index:idx_messages_channel_ts" json:"channel"`
	Timestamp time.Time `gorm:"index:idx_messages_channel_ts" json:"timestamp"`
	CreatedAt time.Time `json:"-"`
}

// BeforeCreate assigns the timestamp when the caller did not supply one
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if !m.Channel.Valid() {
		return ErrInvalidChannel
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}
