package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonus/trainer-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "trainer.db", cfg.DB.Path)
	assert.True(t, cfg.Metrics.Enabled)
	assert.NotEmpty(t, cfg.HTTP.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRAINER_HTTP_PORT", "9999")
	t.Setenv("TRAINER_DB_PATH", "/tmp/other.db")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, "/tmp/other.db", cfg.DB.Path)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := config.Load("/does/not/exist.yaml")
	assert.Error(t, err)
}
