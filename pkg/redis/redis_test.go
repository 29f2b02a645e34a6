package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/internhub_backend/config"
)

func TestFromCentralConfigDefaults(t *testing.T) {
	cfg := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", PoolSize: 32})

	assert.Equal(t, "cache:6379", cfg.Addr)
	assert.Equal(t, 32, cfg.PoolSize)
	assert.Equal(t, DefaultConfig().MinIdleConns, cfg.MinIdleConns)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout())
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout())

	opts := cfg.Options()
	assert.Equal(t, 32, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.WriteTimeout)
}

func TestNewRedisRequiresAddr(t *testing.T) {
	_, err := NewRedis(Config{})
	require.ErrorIs(t, err, ErrNotConfigured)
}
