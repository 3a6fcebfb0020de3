// Package settings persists the character roster and watches it for edits.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-gallery/pkg/characters"
)

// Settings is the persisted user state.
type Settings struct {
	ActiveCharacters []characters.Character `yaml:"active_characters" json:"activeCharacters" jsonschema:"description=The gallery roster in speaking priority order"`
}

// DefaultPath returns ~/.config/grove-gallery/settings.yml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "grove-gallery", "settings.yml"), nil
}

// Store reads and writes a settings file.
type Store struct {
	path string
}

// NewStore creates a store for the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings. A missing file yields the preset roster.
func (s *Store) Load() (*Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			presets, err := characters.Presets()
			if err != nil {
				return nil, err
			}
			return &Settings{ActiveCharacters: presets}, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	if err := characters.Validate(settings.ActiveCharacters); err != nil {
		return nil, fmt.Errorf("invalid settings file %s: %w", s.path, err)
	}
	return &settings, nil
}

// Save writes the settings atomically.
func (s *Store) Save(settings *Settings) error {
	if err := characters.Validate(settings.ActiveCharacters); err != nil {
		return fmt.Errorf("refusing to save invalid roster: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yml")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// SetEnabled toggles one character and saves the result.
func (s *Store) SetEnabled(id string, enabled bool) error {
	settings, err := s.Load()
	if err != nil {
		return err
	}

	for i := range settings.ActiveCharacters {
		if settings.ActiveCharacters[i].ID == id {
			settings.ActiveCharacters[i].Enabled = enabled
			return s.Save(settings)
		}
	}
	return fmt.Errorf("no character with id %q (known: %v)", id, characters.IDs(settings.ActiveCharacters))
}
