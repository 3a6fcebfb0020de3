package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-gallery/pkg/bridge"
	"github.com/mattsolo1/grove-gallery/pkg/differ"
	"github.com/mattsolo1/grove-gallery/pkg/engine"
	"github.com/mattsolo1/grove-gallery/pkg/llm"
	"github.com/mattsolo1/grove-gallery/pkg/session"
	"github.com/mattsolo1/grove-gallery/pkg/settings"
)

//go:generate sh -c "cd .. && go run ./tools/schema-generator/"

// GalleryConfig is the structure of gallery.yml.
type GalleryConfig struct {
	Provider     string        `yaml:"provider" jsonschema:"enum=anthropic,enum=gemini,enum=command,description=Text generation backend"`
	Model        string        `yaml:"model,omitempty" jsonschema:"description=Model name; empty uses the provider default"`
	APIKeyEnv    string        `yaml:"api_key_env,omitempty" jsonschema:"description=Environment variable holding the provider API key"`
	Command      string        `yaml:"command,omitempty" jsonschema:"description=Binary used by the command provider (default llm)"`
	HelperPath   string        `yaml:"helper_path" jsonschema:"description=Path to the accessibility helper binary"`
	BundleID     string        `yaml:"bundle_id,omitempty" jsonschema:"description=Bundle id of the chat application to watch"`
	SettingsFile string        `yaml:"settings_file,omitempty" jsonschema:"description=Character roster file; defaults to ~/.config/grove-gallery/settings.yml"`
	PollInterval time.Duration `yaml:"poll_interval" jsonschema:"type=string,description=How often the conversation is read (e.g. 3s)"`
	SettleDelay  time.Duration `yaml:"settle_delay" jsonschema:"type=string,description=How long a reply must be stable before it counts as finished"`
	Cooldown     time.Duration `yaml:"cooldown" jsonschema:"type=string,description=Minimum time between rounds that produced commentary"`
	IntroDelay   time.Duration `yaml:"intro_delay" jsonschema:"type=string,description=Delay between the now-showing banner and the intro"`
	JitterMin    time.Duration `yaml:"jitter_min" jsonschema:"type=string"`
	JitterMax    time.Duration `yaml:"jitter_max" jsonschema:"type=string"`
	LogFile      string        `yaml:"log_file,omitempty"`
	LogLevel     string        `yaml:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// DefaultGalleryConfig returns the settings used when gallery.yml is absent.
func DefaultGalleryConfig() *GalleryConfig {
	return &GalleryConfig{
		Provider:     llm.ProviderAnthropic,
		HelperPath:   "ax-reader",
		BundleID:     bridge.ChatAppBundleID,
		PollInterval: session.DefaultPollInterval,
		SettleDelay:  differ.DefaultSettleDelay,
		Cooldown:     engine.DefaultCooldown,
		IntroDelay:   session.DefaultIntroDelay,
		JitterMin:    engine.DefaultJitterMin,
		JitterMax:    engine.DefaultJitterMax,
		LogLevel:     "info",
	}
}

// defaultConfigPath returns ~/.config/grove-gallery/gallery.yml.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "grove-gallery", "gallery.yml"), nil
}

// loadGalleryConfig reads path over the defaults. A missing file is fine.
func loadGalleryConfig(path string) (*GalleryConfig, error) {
	cfg := DefaultGalleryConfig()
	if path == "" {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *GalleryConfig) Validate() error {
	var errs []error
	switch c.Provider {
	case llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderCommand:
	default:
		errs = append(errs, fmt.Errorf("provider must be one of anthropic, gemini or command, got %q", c.Provider))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if c.SettleDelay <= 0 {
		errs = append(errs, errors.New("settle_delay must be positive"))
	}
	if c.Cooldown < 0 || c.IntroDelay < 0 {
		errs = append(errs, errors.New("cooldown and intro_delay cannot be negative"))
	}
	if c.JitterMin < 0 || c.JitterMax < c.JitterMin {
		errs = append(errs, errors.New("jitter_min must be non-negative and not above jitter_max"))
	}
	return errors.Join(errs...)
}

// settingsPath resolves the roster file location.
func (c *GalleryConfig) settingsPath() (string, error) {
	if c.SettingsFile != "" {
		return c.SettingsFile, nil
	}
	return settings.DefaultPath()
}

func (c *GalleryConfig) engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Cooldown = c.Cooldown
	cfg.JitterMin = c.JitterMin
	cfg.JitterMax = c.JitterMax
	return cfg
}

func (c *GalleryConfig) sessionConfig() session.Config {
	return session.Config{
		PollInterval: c.PollInterval,
		IntroDelay:   c.IntroDelay,
		Differ:       differ.Config{SettleDelay: c.SettleDelay},
	}
}

func (c *GalleryConfig) llmOptions() llm.Options {
	return llm.Options{
		Provider:  c.Provider,
		Model:     c.Model,
		APIKeyEnv: c.APIKeyEnv,
		Command:   c.Command,
	}
}
