package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval)

	opts := cfg.EditorOptions()
	assert.Equal(t, 100, opts.HistoryDepth)
	assert.Equal(t, 0.5, opts.DefaultTension)
	assert.Equal(t, 6.0, opts.HitTolerance)
	assert.Equal(t, 1.0, opts.SimplifyTolerance)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HISTORY_DEPTH", "10")
	t.Setenv("ALLOWED_ORIGINS", " https://draw.example.com , ,http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 10, cfg.EditorOptions().HistoryDepth)
	assert.Equal(t, []string{"https://draw.example.com", "http://localhost:5173"}, cfg.Origins())
	assert.Equal(t, []string{"draw.example.com", "localhost:5173"}, cfg.OriginHosts())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load()
	assert.ErrorContains(t, err, "LOG_LEVEL")

	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("PORT", "eighty")
	_, err = Load()
	assert.Error(t, err)
}
