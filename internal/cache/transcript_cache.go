package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"coffee-salon/internal/model"
)

// TranscriptCache keeps the merged transcript of a salon in Redis. Writers mark
// the salon dirty so that a reader racing the write does not repopulate the
// cache with a stale read.
type TranscriptCache struct {
	client         *redisv9.Client
	transcriptTTL  time.Duration
	dirtyMarkerTTL time.Duration
}

func NewTranscriptCache(client *redisv9.Client, transcriptTTL, dirtyMarkerTTL time.Duration) *TranscriptCache {
	if transcriptTTL <= 0 {
		transcriptTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &TranscriptCache{
		client:         client,
		transcriptTTL:  transcriptTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *TranscriptCache) GetTranscript(ctx context.Context, salonID string) ([]model.TranscriptEntry, bool, error) {
	raw, err := c.client.Get(ctx, transcriptKey(salonID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get transcript failed: %w", err)
	}

	var entries []model.TranscriptEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached transcript failed: %w", err)
	}
	return entries, true, nil
}

func (c *TranscriptCache) SetTranscript(ctx context.Context, salonID string, entries []model.TranscriptEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal transcript cache failed: %w", err)
	}
	if err := c.client.Set(ctx, transcriptKey(salonID), payload, c.transcriptTTL).Err(); err != nil {
		return fmt.Errorf("redis set transcript failed: %w", err)
	}
	return nil
}

// Invalidate marks the salon dirty and drops its cached transcript.
func (c *TranscriptCache) Invalidate(ctx context.Context, salonID string) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, dirtyKey(salonID), "1", c.dirtyMarkerTTL)
	pipe.Del(ctx, transcriptKey(salonID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis invalidate transcript failed: %w", err)
	}
	return nil
}

func (c *TranscriptCache) IsDirty(ctx context.Context, salonID string) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey(salonID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func transcriptKey(salonID string) string {
	return "salon:transcript:" + salonID
}

func dirtyKey(salonID string) string {
	return "salon:transcript:dirty:" + salonID
}
