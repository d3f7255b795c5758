package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoginThrottle_Defaults(t *testing.T) {
	th := NewLoginThrottle(nil, 0, 0)
	assert.Equal(t, int64(defaultMaxAttempts), th.maxAttempts)
	assert.Equal(t, defaultWindow, th.window)

	th = NewLoginThrottle(nil, 3, time.Minute)
	assert.Equal(t, int64(3), th.maxAttempts)
	assert.Equal(t, time.Minute, th.window)
}

func TestLoginThrottle_Key(t *testing.T) {
	th := NewLoginThrottle(nil, 5, time.Minute)
	assert.Equal(t, "login:fail:alice@example.com", th.key("alice@example.com"))
}

func TestLoginThrottle_UnreachableFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	th := NewLoginThrottle(client, 5, time.Minute)

	ok, err := th.Allow(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.True(t, ok, "an unreachable store must not block logins")

	assert.Error(t, th.RecordFailure(context.Background(), "alice@example.com"))
}
