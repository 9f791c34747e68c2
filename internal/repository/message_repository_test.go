package repository

import (
	"testing"
	"time"

	"agriconnect/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestToAscending(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	newestFirst := func(n int) []models.ChatMessage {
		messages := make([]models.ChatMessage, 0, n)
		for i := n; i > 0; i-- {
			messages = append(messages, models.ChatMessage{
				ID:        uint(i),
				Timestamp: base.Add(time.Duration(i) * time.Minute),
			})
		}
		return messages
	}

	t.Run("even count", func(t *testing.T) {
		messages := toAscending(newestFirst(4))
		for i := 1; i < len(messages); i++ {
			assert.True(t, messages[i].Timestamp.After(messages[i-1].Timestamp))
		}
		assert.Equal(t, uint(1), messages[0].ID)
		assert.Equal(t, uint(4), messages[3].ID)
	})

	t.Run("odd count", func(t *testing.T) {
		messages := toAscending(newestFirst(3))
		assert.Equal(t, uint(1), messages[0].ID)
		assert.Equal(t, uint(2), messages[1].ID)
		assert.Equal(t, uint(3), messages[2].ID)
	})

	t.Run("single and empty", func(t *testing.T) {
		assert.Len(t, toAscending(newestFirst(1)), 1)
		assert.Empty(t, toAscending(nil))
	})
}
