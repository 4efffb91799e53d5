// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Input, Table, Display, Kafka, Redis, Postgres, Export, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Table    TableConfig    `yaml:"table"`
	Display  DisplayConfig  `yaml:"display"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InputConfig selects where the word stream is read from.
type InputConfig struct {
	// Source is "stdin", "file" or "kafka".
	Source   string `yaml:"source"`
	Path     string `yaml:"path"`
	Validate bool   `yaml:"validate"`

	// IdleTimeout ends a kafka stream that has gone quiet without an
	// explicit sentinel. Zero waits forever.
	IdleTimeout time.Duration `yaml:"idleTimeout"`
}

// TableConfig selects the frequency table backing ("map" or "list").
type TableConfig struct {
	Backend string `yaml:"backend"`
}

// DisplayConfig controls how the finished word list is printed.
type DisplayConfig struct {
	Order    string `yaml:"order"`
	Lookup   bool   `yaml:"lookup"`
	WordList bool   `yaml:"wordList"`

	// LookupCache is the number of lookup answers kept in an LRU in front
	// of the table. Zero disables it.
	LookupCache int `yaml:"lookupCache"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Words       string `yaml:"words"`
	Frequencies string `yaml:"frequencies"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	KeyTTL   time.Duration `yaml:"keyTTL"`
}

// ExportConfig lists the sinks the finished table is written to.
type ExportConfig struct {
	Sinks        []string      `yaml:"sinks"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format is "text", "json" or "auto" (text on a terminal, json otherwise).
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Input.Source {
	case "stdin", "kafka":
	case "file":
		if c.Input.Path == "" {
			return fmt.Errorf("input.path is required when input.source is file")
		}
	default:
		return fmt.Errorf("unknown input.source %q", c.Input.Source)
	}
	switch c.Display.Order {
	case "alpha", "count":
	default:
		return fmt.Errorf("unknown display.order %q", c.Display.Order)
	}
	for _, sink := range c.Export.Sinks {
		switch sink {
		case "redis", "postgres", "kafka":
		default:
			return fmt.Errorf("unknown export sink %q", sink)
		}
	}
	switch c.Logging.Format {
	case "text", "json", "auto":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	if c.Display.LookupCache < 0 {
		return fmt.Errorf("display.lookupCache must not be negative")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Source: "stdin",
		},
		Table: TableConfig{
			Backend: "map",
		},
		Display: DisplayConfig{
			Order:       "alpha",
			Lookup:      true,
			WordList:    true,
			LookupCache: 1024,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "wordfreq",
			User:            "wordfreq",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "wordfreq-group",
			Topics: KafkaTopics{
				Words:       "wordfreq.words",
				Frequencies: "wordfreq.frequencies",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 4,
			KeyTTL:   24 * time.Hour,
		},
		Export: ExportConfig{
			Timeout:      30 * time.Second,
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads WF_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WF_INPUT_SOURCE"); v != "" {
		cfg.Input.Source = v
	}
	if v := os.Getenv("WF_INPUT_PATH"); v != "" {
		cfg.Input.Path = v
	}
	if v := os.Getenv("WF_INPUT_VALIDATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Input.Validate = b
		}
	}
	if v := os.Getenv("WF_TABLE_BACKEND"); v != "" {
		cfg.Table.Backend = v
	}
	if v := os.Getenv("WF_DISPLAY_ORDER"); v != "" {
		cfg.Display.Order = v
	}
	if v := os.Getenv("WF_DISPLAY_LOOKUP_CACHE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Display.LookupCache = n
		}
	}
	if v := os.Getenv("WF_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("WF_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("WF_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("WF_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("WF_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("WF_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("WF_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WF_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("WF_EXPORT_SINKS"); v != "" {
		cfg.Export.Sinks = strings.Split(v, ",")
	}
	if v := os.Getenv("WF_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WF_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WF_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
			cfg.Metrics.Enabled = true
		}
	}
}
