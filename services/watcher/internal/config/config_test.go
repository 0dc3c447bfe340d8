package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var watcherEnv = []string{
	"CONTAINER_NUMBER",
	"SOURCE_URL",
	"UPDATE_INTERVAL",
	"WATCHER_REQUEST_TIMEOUT",
	"REPORT_LANGUAGE",
	"STATUS_ADDR",
	"DATABASE_URL",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range watcherEnv {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.ContainerNumber)
	assert.Equal(t, defaultSourceURL, cfg.SourceURL)
	assert.Equal(t, 10*time.Minute, cfg.UpdateInterval)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "nl", cfg.Language)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Empty(t, cfg.StatusAddr)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONTAINER_NUMBER", " X1 ")
	t.Setenv("UPDATE_INTERVAL", "3")
	t.Setenv("WATCHER_REQUEST_TIMEOUT", "2s")
	t.Setenv("REPORT_LANGUAGE", "EN")
	t.Setenv("STATUS_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "X1", cfg.ContainerNumber)
	assert.Equal(t, 3*time.Minute, cfg.UpdateInterval)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, ":9090", cfg.StatusAddr)
	assert.Equal(t, "Spaarnelanden Inzameling (Container X1)", cfg.SensorName())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric interval", "UPDATE_INTERVAL", "ten"},
		{"zero interval", "UPDATE_INTERVAL", "0"},
		{"duration interval", "UPDATE_INTERVAL", "10m"},
		{"bad timeout", "WATCHER_REQUEST_TIMEOUT", "soon"},
		{"negative timeout", "WATCHER_REQUEST_TIMEOUT", "-1s"},
		{"unsupported language", "REPORT_LANGUAGE", "de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
