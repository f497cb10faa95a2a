package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_Defaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./data/pharmaguard.db", cfg.Database.SQLitePath)
	assert.Equal(t, 512, cfg.Cache.LRUSize)
	assert.Equal(t, "gpt-4o-mini", cfg.GenAI.Model)
	assert.Empty(t, cfg.GenAI.APIKey)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, manager.Validate())
}

func TestNewManager_EnvironmentOverride(t *testing.T) {
	t.Setenv("PHARMAGUARD_SERVER_PORT", "9090")
	t.Setenv("PHARMAGUARD_LOGGING_LEVEL", "debug")

	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.NoError(t, manager.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Manager)
	}{
		{
			name:   "invalid port",
			mutate: func(m *Manager) { m.GetConfig().Server.Port = 0 },
		},
		{
			name:   "unsupported driver",
			mutate: func(m *Manager) { m.GetConfig().Database.Driver = "mysql" },
		},
		{
			name: "sqlite without path",
			mutate: func(m *Manager) {
				m.GetConfig().Database.Driver = "sqlite"
				m.GetConfig().Database.SQLitePath = ""
			},
		},
		{
			name: "postgres without url",
			mutate: func(m *Manager) {
				m.GetConfig().Database.Driver = "postgres"
				m.GetConfig().Database.PostgresURL = ""
			},
		},
		{
			name: "api key without model",
			mutate: func(m *Manager) {
				m.GetConfig().GenAI.APIKey = "sk-test"
				m.GetConfig().GenAI.Model = ""
			},
		},
		{
			name:   "non-positive lru size",
			mutate: func(m *Manager) { m.GetConfig().Cache.LRUSize = 0 },
		},
		{
			name:   "invalid log level",
			mutate: func(m *Manager) { m.GetConfig().Logging.Level = "verbose" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewManager()
			require.NoError(t, err)
			tt.mutate(manager)
			assert.Error(t, manager.Validate())
		})
	}
}

func TestValidate_PostgresDriver(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	cfg.Database.Driver = "postgres"
	cfg.Database.PostgresURL = "postgres://localhost:5432/pharmaguard"

	assert.NoError(t, manager.Validate())
}
