package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":4242", cfg.Server.TCP.Address)
	assert.Equal(t, "/ws", cfg.Server.WebSocket.Path)
	assert.Equal(t, 60*time.Second, cfg.Match.TurnDuration)
	assert.Equal(t, 20, cfg.Match.DeckSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Match.Rules().Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: console
match:
  turn_duration: 30s
  deck_size: 10
  seed: 99
`)
	t.Setenv("DUEL_DATABASE_URL", "postgres://duel@db:5432/duel")
	t.Setenv("DUEL_MATCH_INITIAL_HAND_SIZE", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 30*time.Second, cfg.Match.TurnDuration)
	assert.Equal(t, "postgres://duel@db:5432/duel", cfg.Database.URL)

	rules := cfg.Match.Rules()
	assert.Equal(t, 10, rules.DeckSize)
	assert.Equal(t, 3, rules.InitialHandSize)
	assert.Equal(t, int64(99), rules.Seed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad level", body: "logging:\n  level: loud\n", want: "logging.level"},
		{name: "bad format", body: "logging:\n  format: xml\n", want: "logging.format"},
		{name: "zero turn", body: "match:\n  turn_duration: 0s\n", want: "turn_duration"},
		{name: "max below initial", body: "match:\n  max_health: 10\n", want: "max health"},
		{name: "pool bounds", body: "database:\n  min_conns: 20\n", want: "pool bounds"},
		{name: "no listener", body: "server:\n  tcp:\n    address: \"\"\n  websocket:\n    address: \"\"\n", want: "at least one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
