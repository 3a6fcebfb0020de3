package characters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	roster, err := Presets()
	require.NoError(t, err)

	assert.Equal(t, []string{"waldorf", "statler", "dave", "gerald"}, IDs(roster))
	assert.Equal(t, []string{"Waldorf", "Statler", "Dave"}, Names(Enabled(roster)))

	for _, c := range roster {
		assert.NotEmpty(t, c.SystemPrompt, c.ID)
		assert.NotEmpty(t, c.Summary, c.ID)
	}
}

func TestFind(t *testing.T) {
	roster := MustPresets()

	c, ok := Find(roster, "statler")
	require.True(t, ok)
	assert.Equal(t, "Statler", c.Name)

	_, ok = Find(roster, "kermit")
	assert.False(t, ok)
}

func TestDisplayAvatar(t *testing.T) {
	assert.Equal(t, DefaultAvatar, Character{}.DisplayAvatar())
	assert.Equal(t, "🎩", Character{Avatar: "🎩"}.DisplayAvatar())
}

func TestValidate(t *testing.T) {
	valid := Character{ID: "a", Name: "A", MaxTokens: 10, ReactionChance: 0.5}
	require.NoError(t, Validate([]Character{valid}))

	tests := []struct {
		name   string
		roster []Character
		want   string
	}{
		{"missing id", []Character{{Name: "A", MaxTokens: 1}}, "id must be provided"},
		{"duplicate id", []Character{valid, valid}, "duplicate id"},
		{"bad chance", []Character{{ID: "b", Name: "B", MaxTokens: 1, ReactionChance: 1.5}}, "reaction_chance"},
		{"no tokens", []Character{{ID: "c", Name: "C"}}, "max_tokens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.roster)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
