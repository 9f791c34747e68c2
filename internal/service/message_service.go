package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"agriconnect/backend/internal/models"
	"agriconnect/backend/internal/repository"
	"agriconnect/backend/pkg/logger"
	"agriconnect/backend/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyMessage is returned when a message is empty after trimming.
// Handlers treat it as a silent no-op, not a user-facing error.
var ErrEmptyMessage = errors.New("empty message text")

// historyCacheTTL bounds staleness of the redis-cached history between
// invalidations; connects within this window skip the store entirely.
const historyCacheTTL = 30 * time.Second

// MessageService persists chat messages and serves recent history, with an
// optional redis cache in front of the history query.
type MessageService struct {
	repo  repository.MessageRepository
	cache *redis.Client // nil when REDIS_URL is not configured
	log   *logger.Logger
}

// NewMessageService creates a message service. cache may be nil.
func NewMessageService(repo repository.MessageRepository, cache *redis.Client, log *logger.Logger) *MessageService {
	return &MessageService{repo: repo, cache: cache, log: log.WithComponent("messages")}
}

// Save validates and persists a chat message. Text is trimmed; empty text
// yields ErrEmptyMessage and nothing is persisted. The store assigns the
// message ID and timestamp.
func (s *MessageService) Save(ctx context.Context, channel models.Channel, user, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		metrics.MessagesRejected.WithLabelValues(string(channel)).Inc()
		return nil, ErrEmptyMessage
	}
	if !channel.Valid() {
		return nil, models.ErrInvalidChannel
	}

	msg := &models.ChatMessage{
		User:    user,
		Text:    text,
		Channel: channel,
	}
	if err := s.repo.Create(msg); err != nil {
		return nil, err
	}

	metrics.MessagesSaved.WithLabelValues(string(channel)).Inc()
	s.invalidateHistory(ctx, channel)

	return msg, nil
}

// Recent returns the newest limit messages for a channel in ascending
// timestamp order, serving from the cache when possible.
func (s *MessageService) Recent(ctx context.Context, channel models.Channel, limit int) ([]models.ChatMessage, error) {
	if cached, ok := s.historyFromCache(ctx, channel); ok {
		if len(cached) > limit {
			cached = cached[len(cached)-limit:]
		}
		return cached, nil
	}

	messages, err := s.repo.RecentByChannel(channel, limit)
	if err != nil {
		return nil, err
	}

	s.storeHistoryInCache(ctx, channel, messages)
	return messages, nil
}

func historyKey(channel models.Channel) string {
	return "history:" + string(channel)
}

func (s *MessageService) historyFromCache(ctx context.Context, channel models.Channel) ([]models.ChatMessage, bool) {
	if s.cache == nil {
		return nil, false
	}

	payload, err := s.cache.Get(ctx, historyKey(channel)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("history cache read failed", "channel", channel, "error", err.Error())
		}
		metrics.HistoryCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	var messages []models.ChatMessage
	if err := json.Unmarshal([]byte(payload), &messages); err != nil {
		s.log.Warn("history cache entry corrupt, discarding", "channel", channel)
		s.cache.Del(ctx, historyKey(channel))
		metrics.HistoryCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.HistoryCacheHits.WithLabelValues("hit").Inc()
	return messages, true
}

func (s *MessageService) storeHistoryInCache(ctx context.Context, channel models.Channel, messages []models.ChatMessage) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, historyKey(channel), payload, historyCacheTTL).Err(); err != nil {
		s.log.Warn("history cache write failed", "channel", channel, "error", err.Error())
	}
}

func (s *MessageService) invalidateHistory(ctx context.Context, channel models.Channel) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, historyKey(channel)).Err(); err != nil {
		s.log.Warn("history cache invalidation failed", "channel", channel, "error", err.Error())
	}
}
