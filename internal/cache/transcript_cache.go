package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"ragchat/internal/model"
)

// TranscriptCache keeps recently read section transcripts in redis. Entries
// are invalidated when a new turn is recorded and expire on their own
// otherwise.
type TranscriptCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTranscriptCache(client *redisv9.Client, ttl time.Duration) *TranscriptCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &TranscriptCache{client: client, ttl: ttl}
}

func (c *TranscriptCache) Get(ctx context.Context, sectionID string) ([]model.Message, bool, error) {
	raw, err := c.client.Get(ctx, c.key(sectionID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get transcript failed: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached transcript failed: %w", err)
	}
	return messages, true, nil
}

func (c *TranscriptCache) Set(ctx context.Context, sectionID string, messages []model.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal transcript cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(sectionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set transcript failed: %w", err)
	}
	return nil
}

func (c *TranscriptCache) Invalidate(ctx context.Context, sectionID string) error {
	if err := c.client.Del(ctx, c.key(sectionID)).Err(); err != nil {
		return fmt.Errorf("redis delete transcript failed: %w", err)
	}
	return nil
}

func (c *TranscriptCache) key(sectionID string) string {
	return "chat:transcript:" + sectionID
}
