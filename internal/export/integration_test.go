package export

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/wordfreq/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests talk to real backends and skip when they are unreachable.

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func skipIfNoRedis(t *testing.T) *pkgredis.Client {
	t.Helper()
	c, err := pkgredis.NewClient(config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		PoolSize: 2,
	})
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "wordfreq_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "wordfreq"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRedis_Integration(t *testing.T) {
	client := skipIfNoRedis(t)
	ctx := context.Background()
	snap := sampleSnapshot()
	snap.RunID = "it-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	t.Cleanup(func() { client.Del(ctx, RedisKey(snap.RunID)) })

	require.NoError(t, NewRedis(client, time.Minute).Export(ctx, snap))

	got, err := client.HashGetAll(ctx, RedisKey(snap.RunID))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"hello": "2", "world": "1"}, got)
}

func TestPostgres_Integration(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	_, err := db.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS wordfreq_runs (
			run_id TEXT PRIMARY KEY,
			total_words BIGINT NOT NULL,
			distinct_words BIGINT NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS wordfreq_words (
			run_id TEXT NOT NULL REFERENCES wordfreq_runs(run_id) ON DELETE CASCADE,
			word TEXT NOT NULL,
			count BIGINT NOT NULL,
			PRIMARY KEY (run_id, word)
		)`)
	require.NoError(t, err)

	snap := sampleSnapshot()
	snap.RunID = "it-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	t.Cleanup(func() { db.DB.ExecContext(ctx, `DELETE FROM wordfreq_runs WHERE run_id = $1`, snap.RunID) })

	sink := NewPostgres(db)
	require.NoError(t, sink.Export(ctx, snap))
	// exporting twice replaces rather than duplicates
	require.NoError(t, sink.Export(ctx, snap))

	var count int
	require.NoError(t, db.DB.QueryRowContext(ctx,
		`SELECT count FROM wordfreq_words WHERE run_id = $1 AND word = $2`, snap.RunID, "hello").Scan(&count))
	assert.Equal(t, 2, count)

	var rows int
	require.NoError(t, db.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wordfreq_words WHERE run_id = $1`, snap.RunID).Scan(&rows))
	assert.Equal(t, 2, rows)
}
