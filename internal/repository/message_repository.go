package repository

import (
	"agriconnect/backend/internal/models"

	"gorm.io/gorm"
)

// MessageRepository persists chat messages. The store is append-only; there
// are no update or delete operations.
type MessageRepository interface {
	Create(message *models.ChatMessage) error
	// RecentByChannel returns the newest limit messages for a channel,
	// ordered by ascending timestamp.
	RecentByChannel(channel models.Channel, limit int) ([]models.ChatMessage, error)
}

// GormMessageRepository is the postgres-backed message repository
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a message repository over the given DB handle
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *GormMessageRepository) RecentByChannel(channel models.Channel, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Where("channel = ?", channel).
		Order("timestamp DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return toAscending(messages), nil
}

// toAscending flips a newest-first result set in place; clients expect
// history in ascending timestamp order.
func toAscending(messages []models.ChatMessage) []models.ChatMessage {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}
