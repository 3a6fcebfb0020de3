package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-gallery/pkg/engine"
	"github.com/mattsolo1/grove-gallery/pkg/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gallery.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadGalleryConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadGalleryConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultGalleryConfig(), cfg)
}

func TestLoadGalleryConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "provider: gemini\npoll_interval: 5s\ncooldown: 30s\n")

	cfg, err := loadGalleryConfig(path)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Cooldown)
	assert.Equal(t, "ax-reader", cfg.HelperPath, "unset fields keep defaults")
	assert.Equal(t, engine.DefaultJitterMax, cfg.JitterMax)
}

func TestLoadGalleryConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr []string
	}{
		{
			name:    "malformed yaml",
			content: "provider: [unterminated\n",
			wantErr: []string{"parse config"},
		},
		{
			name:    "unknown provider",
			content: "provider: openai\n",
			wantErr: []string{"invalid config", "provider must be one of"},
		},
		{
			name:    "several problems reported together",
			content: "poll_interval: 0s\njitter_min: 5s\njitter_max: 1s\n",
			wantErr: []string{"poll_interval must be positive", "jitter_min"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadGalleryConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestGalleryConfigDerivedConfigs(t *testing.T) {
	cfg := DefaultGalleryConfig()
	cfg.Cooldown = 42 * time.Second
	cfg.SettleDelay = 3 * time.Second
	cfg.SettingsFile = "/tmp/roster.yml"

	eng := cfg.engineConfig()
	assert.Equal(t, 42*time.Second, eng.Cooldown)
	assert.Equal(t, engine.DefaultConfig().DirectorMaxTokens, eng.DirectorMaxTokens)

	sess := cfg.sessionConfig()
	assert.Equal(t, 3*time.Second, sess.Differ.SettleDelay)
	assert.Equal(t, cfg.PollInterval, sess.PollInterval)

	path, err := cfg.settingsPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/roster.yml", path)
}
