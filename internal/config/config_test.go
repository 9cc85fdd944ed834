package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Inventory.FreshFor)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "https://api.steampowered.com", cfg.Steam.APIBaseURL)
	assert.False(t, cfg.Steam.VerifyAssertion)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10, cfg.Storage.KeepArchives)
	assert.Equal(t, 15*time.Minute, cfg.Storage.URLTTL)
	assert.Equal(t, time.Hour, cfg.Auth.SessionSweep)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SKINVAULT_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("SKINVAULT_INVENTORY_FRESHFOR", "15m")
	t.Setenv("SKINVAULT_STEAM_APIKEY", "k")
	t.Setenv("SKINVAULT_SERVER_CORSORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Inventory.FreshFor)
	assert.Equal(t, "k", cfg.Steam.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}
