package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 64, cfg.Store.MaxKeySize)
	assert.Equal(t, 64<<10, cfg.Store.MaxValueSize)
	assert.Equal(t, "local", cfg.Lock.Driver)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.False(t, cfg.Auth.Required)
	assert.True(t, cfg.Store.MigrateOnStart)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("LOCK_TTL", "3s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_DB", "4")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("MIGRATE_ON_START", "false")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 3*time.Second, cfg.Lock.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, 4, cfg.Redis.DB)
	assert.True(t, cfg.Auth.Required)
	assert.False(t, cfg.Store.MigrateOnStart)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "four")
	t.Setenv("LOCK_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 10*time.Second, cfg.Lock.TTL)
}
