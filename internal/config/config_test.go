package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, 1*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 1*time.Hour, cfg.StagedMaxAge)
	assert.Equal(t, int64(8<<20), cfg.MaxUploadSize)
	assert.Equal(t, "*", cfg.CORSOrigin)
}

func TestNewConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TOKEN_TTL", "30m")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
}

func TestNewConfigRejectsBadTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")

	_, err := NewConfig()
	require.Error(t, err)
}
