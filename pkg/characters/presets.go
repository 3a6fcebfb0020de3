package characters

import (
	"embed"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// presetOrder fixes the roster order; the first enabled preset is the
// director's fallback speaker.
var presetOrder = []string{"waldorf", "statler", "dave", "gerald"}

// Presets returns the built-in character roster.
func Presets() ([]Character, error) {
	roster := make([]Character, 0, len(presetOrder))
	for _, id := range presetOrder {
		data, err := presetFS.ReadFile(path.Join("presets", id+".yaml"))
		if err != nil {
			return nil, fmt.Errorf("read preset %s: %w", id, err)
		}
		var c Character
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse preset %s: %w", id, err)
		}
		roster = append(roster, c)
	}
	if err := Validate(roster); err != nil {
		return nil, fmt.Errorf("invalid presets: %w", err)
	}
	return roster, nil
}

// MustPresets is Presets for callers that treat a broken embed as a bug.
func MustPresets() []Character {
	roster, err := Presets()
	if err != nil {
		panic(err)
	}
	return roster
}
