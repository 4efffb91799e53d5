package export

import (
	"context"
	"time"
)

const redisKeyPrefix = "wordfreq:run:"

// HashWriter is implemented by pkg/redis.Client.
type HashWriter interface {
	ReplaceHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error
}

// Redis stores a run as one hash, field = word, value = count.
type Redis struct {
	client HashWriter
	ttl    time.Duration
}

func NewRedis(client HashWriter, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Name() string { return "redis" }

func RedisKey(runID string) string { return redisKeyPrefix + runID }

func (r *Redis) Export(ctx context.Context, snap Snapshot) error {
	fields := make(map[string]any, len(snap.Entries))
	for _, e := range snap.Entries {
		fields[e.Word] = e.Count
	}
	return r.client.ReplaceHash(ctx, RedisKey(snap.RunID), fields, r.ttl)
}
