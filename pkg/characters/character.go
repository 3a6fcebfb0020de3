package characters

import (
	"errors"
	"fmt"
)

// DefaultAvatar is shown for characters that do not set one.
const DefaultAvatar = "🎤"

// Character is the persona configuration for one heckler.
type Character struct {
	ID                    string  `yaml:"id" json:"id" jsonschema:"description=Unique character id used by the director"`
	Name                  string  `yaml:"name" json:"name"`
	Avatar                string  `yaml:"avatar,omitempty" json:"avatar,omitempty"`
	Color                 string  `yaml:"color" json:"color" jsonschema:"description=Hex colour used when rendering comments"`
	Enabled               bool    `yaml:"enabled" json:"enabled"`
	Summary               string  `yaml:"summary" json:"summary" jsonschema:"description=One-line description shown to the director"`
	SystemPrompt          string  `yaml:"system_prompt" json:"systemPrompt"`
	Temperature           float64 `yaml:"temperature" json:"temperature"`
	MaxTokens             int     `yaml:"max_tokens" json:"maxTokens"`
	ReactionChance        float64 `yaml:"reaction_chance" json:"reactionChance"`
	ReactionToOtherChance float64 `yaml:"reaction_to_other_chance" json:"reactionToOtherChance"`
}

// DisplayAvatar returns the avatar or the default one.
func (c Character) DisplayAvatar() string {
	if c.Avatar == "" {
		return DefaultAvatar
	}
	return c.Avatar
}

// Enabled returns the enabled characters in roster order.
func Enabled(roster []Character) []Character {
	out := make([]Character, 0, len(roster))
	for _, c := range roster {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out
}

// IDs returns the ids of the given characters in order.
func IDs(roster []Character) []string {
	ids := make([]string, len(roster))
	for i, c := range roster {
		ids[i] = c.ID
	}
	return ids
}

// Names returns the display names of the given characters in order.
func Names(roster []Character) []string {
	names := make([]string, len(roster))
	for i, c := range roster {
		names[i] = c.Name
	}
	return names
}

// Find looks a character up by id.
func Find(roster []Character, id string) (Character, bool) {
	for _, c := range roster {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// Validate checks a roster for duplicate ids and out-of-range settings.
func Validate(roster []Character) error {
	seen := make(map[string]bool, len(roster))
	var errs []error
	for i, c := range roster {
		if c.ID == "" {
			errs = append(errs, fmt.Errorf("character %d: id must be provided", i))
			continue
		}
		if seen[c.ID] {
			errs = append(errs, fmt.Errorf("character %q: duplicate id", c.ID))
		}
		seen[c.ID] = true
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("character %q: name must be provided", c.ID))
		}
		if c.MaxTokens <= 0 {
			errs = append(errs, fmt.Errorf("character %q: max_tokens must be positive", c.ID))
		}
		if c.ReactionChance < 0 || c.ReactionChance > 1 {
			errs = append(errs, fmt.Errorf("character %q: reaction_chance must be within [0,1]", c.ID))
		}
		if c.ReactionToOtherChance < 0 || c.ReactionToOtherChance > 1 {
			errs = append(errs, fmt.Errorf("character %q: reaction_to_other_chance must be within [0,1]", c.ID))
		}
	}
	return errors.Join(errs...)
}
