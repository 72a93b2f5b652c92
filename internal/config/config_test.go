package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tabletalk.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.AI.Host)
	assert.Equal(t, "llama3", cfg.AI.Model)
	assert.Equal(t, 10, cfg.Poker.SmallBlind)
	assert.Equal(t, 20, cfg.Poker.BigBlind)
	assert.Equal(t, 1000, cfg.Poker.StartingChips)

	timeout, err := cfg.DecisionTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
log_level = "debug"

ai {
  host             = "http://gpu-box:11434"
  model            = "mistral:7b"
  decision_timeout = "10s"
}

poker {
  small_blind    = 25
  big_blind      = 50
  starting_chips = 5000
}

stats {
  path = "/var/lib/tabletalk/stats.db"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://gpu-box:11434", cfg.AI.Host)
	assert.Equal(t, "mistral:7b", cfg.AI.Model)
	assert.Equal(t, 25, cfg.Poker.SmallBlind)
	assert.Equal(t, 50, cfg.Poker.BigBlind)
	assert.Equal(t, 5000, cfg.Poker.StartingChips)
	assert.Equal(t, "/var/lib/tabletalk/stats.db", cfg.Stats.Path)

	// Unset fields keep their defaults.
	assert.Equal(t, "60s", cfg.AI.RequestTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"bad timeout", `ai { decision_timeout = "soonish" }`},
		{"inverted blinds", "poker {\n  small_blind = 50\n  big_blind = 20\n}"},
		{"stack below blind", "poker {\n  starting_chips = 5\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedHCL(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "ai { host = "))
	require.Error(t, err)
}
