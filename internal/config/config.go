// Package config provides configuration management using viper.
// It supports loading from YAML files, .env files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Chat types as reported by Telegram.
const (
	ChatTypePrivate = "private"
)

// Config holds all application configuration.
type Config struct {
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Session  SessionConfig  `mapstructure:"session"`
	Access   AccessConfig   `mapstructure:"access"`
	Games    GamesConfig    `mapstructure:"games"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size" validate:"gte=0"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	PoolSize int    `mapstructure:"pool_size" validate:"gte=0"`
}

// LedgerConfig selects where accounts are stored.
type LedgerConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=memory postgres"`
}

// SessionConfig selects where conversation sessions are kept.
type SessionConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// AccessConfig restricts which group chat and topic the bot answers in.
// Private chats are always allowed.
type AccessConfig struct {
	ChatID      int64  `mapstructure:"chat_id"`
	TopicID     int    `mapstructure:"topic_id" validate:"gte=0"`
	DenyMessage string `mapstructure:"deny_message"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	Dice DiceConfig `mapstructure:"dice"`
}

// DiceConfig holds dice game configuration.
type DiceConfig struct {
	MaxBet int64 `mapstructure:"max_bet" validate:"gte=0"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env.local", ".env")

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, DATABASE_HOST, ACCESS_TOPIC_ID
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Session.Backend == BackendRedis && c.Redis.Addr == "" {
		return errors.New("invalid config: redis.addr is required for the redis session backend")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	v.SetDefault("bot.token", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "wagerbot")
	v.SetDefault("database.name", "wagerbot")
	v.SetDefault("database.password", "")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("ledger.backend", BackendPostgres)
	v.SetDefault("session.backend", BackendMemory)
	v.SetDefault("session.ttl", "30m")

	v.SetDefault("access.chat_id", 0)
	v.SetDefault("access.topic_id", 320)
	v.SetDefault("access.deny_message", "")

	v.SetDefault("games.dice.max_bet", 0)

	v.SetDefault("metrics.addr", "")
}

// IsAllowed reports whether a command from the given chat may be handled.
// Private chats are always allowed. Group chats must match the configured
// chat (0 means any chat) and, when a topic is configured, the topic thread.
func (c *Config) IsAllowed(chatID int64, chatType string, threadID int) bool {
	if chatType == ChatTypePrivate {
		return true
	}
	if c.Access.ChatID != 0 && c.Access.ChatID != chatID {
		return false
	}
	if c.Access.TopicID != 0 && c.Access.TopicID != threadID {
		return false
	}
	return true
}

// DenialEnabled reports whether unauthorized group commands get a reply.
func (c *Config) DenialEnabled() bool {
	return c.Access.DenyMessage != ""
}
