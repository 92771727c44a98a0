package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadWithoutDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "5000")
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OPERATOR_API_KEY_HASH", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "0")
	t.Setenv("BATCH_MAX_SIZE", "")

	cfg := Load()
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "5000", cfg.Port)
	assert.False(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, 1, cfg.AccessTTLMin)
	assert.Equal(t, 100, cfg.BatchMaxSize)
}

func TestLoadWithDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "5000")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "heart")
	t.Setenv("DB_NAME", "heart")
	t.Setenv("DB_PORT", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("OPERATOR_API_KEY_HASH", "$2a$10$hash")

	cfg := Load()
	assert.True(t, cfg.DatabaseEnabled())
	assert.Equal(t, "3306", cfg.DBPort)
	assert.True(t, cfg.AuthEnabled())
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "10s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
	assert.Equal(t, "ip_route", cfg.KeyStrategy)
}

func TestLoadRateLimitConfigBurst(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "7")
	assert.Equal(t, 7, LoadRateLimitConfig().Capacity)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestLoadEventsConfig(t *testing.T) {
	t.Setenv("EVENTS_BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")

	cfg := LoadEventsConfig()
	assert.Equal(t, BrokerKafka, cfg.Broker)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.RabbitURL)
	assert.Equal(t, "prediction.completed", cfg.Queue)
	assert.Equal(t, "logs", cfg.LogDir)
}

func TestNewRedisClientDisabled(t *testing.T) {
	t.Setenv("REDIS_DISABLED", "true")
	assert.Nil(t, NewRedisClient())
}
