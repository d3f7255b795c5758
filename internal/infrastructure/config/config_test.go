package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8, cfg.BcryptCost)
	assert.Equal(t, 1000000, cfg.MaxPhotoBytes)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "task_manager", cfg.Mongo.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5, cfg.Login.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Login.Window)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "s3cret",
		"PORT":            "9090",
		"ENV":             "production",
		"REQUEST_TIMEOUT": "3s",
		"MONGO_URI":       "mongodb://db:27017",
		"LOGIN_WINDOW":    "1m",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, time.Minute, cfg.Login.Window)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	_, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":      "s3cret",
		"REQUEST_TIMEOUT": "0s",
	}))
	require.Error(t, err)
}
