package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "stdin", cfg.Input.Source)
	assert.Equal(t, "map", cfg.Table.Backend)
	assert.Equal(t, "alpha", cfg.Display.Order)
	assert.True(t, cfg.Display.Lookup)
	assert.False(t, cfg.Input.Validate)
	assert.Empty(t, cfg.Export.Sinks)
	assert.Equal(t, 1024, cfg.Display.LookupCache)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordfreq.yaml")
	data := []byte(`
input:
  source: file
  path: /tmp/words.txt
  validate: true
table:
  backend: list
display:
  order: count
export:
  sinks: [redis, postgres]
  timeout: 5s
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Input.Source)
	assert.Equal(t, "/tmp/words.txt", cfg.Input.Path)
	assert.True(t, cfg.Input.Validate)
	assert.Equal(t, "list", cfg.Table.Backend)
	assert.Equal(t, "count", cfg.Display.Order)
	assert.Equal(t, []string{"redis", "postgres"}, cfg.Export.Sinks)
	assert.Equal(t, 5*time.Second, cfg.Export.Timeout)
	// untouched sections keep their defaults
	assert.Equal(t, 5432, cfg.Postgres.Port)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WF_TABLE_BACKEND", "list")
	t.Setenv("WF_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("WF_INPUT_VALIDATE", "true")
	t.Setenv("WF_METRICS_PORT", "9191")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "list", cfg.Table.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Input.Validate)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown source", "input:\n  source: socket\n"},
		{"file without path", "input:\n  source: file\n"},
		{"unknown order", "display:\n  order: random\n"},
		{"unknown sink", "export:\n  sinks: [s3]\n"},
		{"unknown log format", "logging:\n  format: xml\n"},
		{"negative cache", "display:\n  lookupCache: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresConfig_DSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", p.DSN())
}
