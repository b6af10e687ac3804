// Copyright 2025 DreamTrip
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "trip_events", cfg.EventStream)
	for _, name := range []string{"route", "weather", "poi", "ai"} {
		p, ok := cfg.Providers[name]
		require.True(t, ok, "missing default provider %q", name)
		assert.Equal(t, 30*time.Second, p.Timeout(), "provider %s timeout", name)
	}
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 64, cfg.QueueSize)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port, "missing file should fall back to defaults")
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := `
port: "9090"
event_stream: staging_trip_events
providers:
  route:
    url: http://route.staging:8001
    timeout_ms: 5000
  weather:
    url: http://weather.staging:8002
  poi:
    url: http://poi.staging:8003
  ai:
    url: http://ai.staging:8004
    timeout_ms: 60000
workers: 8
queue_size: 128
cache_ttl_seconds: 600
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "staging_trip_events", cfg.EventStream)
	assert.Equal(t, 5*time.Second, cfg.Providers["route"].Timeout())
	assert.Equal(t, time.Minute, cfg.Providers["ai"].Timeout())
	// timeout_ms omitted falls back to the default budget
	assert.Equal(t, 30*time.Second, cfg.Providers["weather"].Timeout())
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 128, cfg.QueueSize)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9090\"\n"), 0o644))

	t.Setenv("PORT", "7777")
	t.Setenv("DATABASE_URL", "postgres://override:pw@db:5432/trips")
	t.Setenv("ROUTE_SERVICE_URL", "http://route.prod:8001")
	t.Setenv("PROCESSOR_WORKERS", "16")
	t.Setenv("CACHE_TTL_SECONDS", "120")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7777", cfg.Port)
	assert.Equal(t, "postgres://override:pw@db:5432/trips", cfg.DatabaseURL)
	assert.Equal(t, "http://route.prod:8001", cfg.Providers["route"].URL)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TRIP_DB_HOST", "db.internal")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "host: ${TRIP_DB_HOST}", "host: db.internal"},
		{"unset with default", "host: ${TRIP_DB_MISSING:-localhost}", "host: localhost"},
		{"unset without default", "host: ${TRIP_DB_MISSING}", "host: "},
		{"no reference", "host: literal", "host: literal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestValidateRejectsMissingProvider(t *testing.T) {
	cfg := Defaults()
	delete(cfg.Providers, "weather")

	assert.Error(t, cfg.validate())
}

func TestMalformedYAMLIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
