package director

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-gallery/pkg/conversation"
)

var enabledIDs = []string{"waldorf", "statler", "dave"}

func TestParsePlanValid(t *testing.T) {
	raw := `{"cast": [
		{"characterId": "waldorf", "reactTo": "conversation", "note": "go for the jugular"},
		{"characterId": "statler", "reactTo": "waldorf", "note": "pile on"}
	]}`

	plan := ParsePlan(raw, enabledIDs)
	assert.Equal(t, KindValid, plan.Kind)
	assert.Equal(t, []CastEntry{
		{CharacterID: "waldorf", ReactTo: ReactToConversation, Note: "go for the jugular"},
		{CharacterID: "statler", ReactTo: "waldorf", Note: "pile on"},
	}, plan.Cast)
}

func TestParsePlanEmptyCastIsIntentionalSilence(t *testing.T) {
	plan := ParsePlan(`{"cast": []}`, enabledIDs)
	assert.Equal(t, KindValid, plan.Kind)
	assert.Empty(t, plan.Cast)
	assert.NotNil(t, plan.Cast)
}

func TestParsePlanFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "not json at all"},
		{"empty", ""},
		{"missing cast", `{"speakers": []}`},
		{"cast is a string", `{"cast": "oops"}`},
		{"cast is null", `{"cast": null}`},
		{"top-level array", `[{"characterId": "statler"}]`},
		{"truncated", `{"cast": [{"characterId": "statler"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ParsePlan(tt.raw, enabledIDs)
			assert.True(t, plan.IsFallback())
			assert.NotEmpty(t, plan.Reason)
			require.Len(t, plan.Cast, 1)
			assert.Equal(t, CastEntry{CharacterID: "waldorf", ReactTo: ReactToConversation}, plan.Cast[0])
		})
	}
}

func TestParsePlanFallbackWithNobodyEnabled(t *testing.T) {
	plan := ParsePlan("nope", nil)
	assert.True(t, plan.IsFallback())
	assert.Empty(t, plan.Cast)
}

func TestParsePlanFiltersEntries(t *testing.T) {
	raw := `{"cast": [
		{"characterId": "waldorf", "reactTo": "conversation"},
		{"characterId": "unknown", "reactTo": "conversation"},
		{"characterId": 42},
		"statler",
		{"characterId": "dave", "reactTo": "nobody", "note": 7}
	]}`

	plan := ParsePlan(raw, enabledIDs)
	assert.Equal(t, KindValid, plan.Kind)
	assert.Equal(t, []CastEntry{
		{CharacterID: "waldorf", ReactTo: ReactToConversation},
		{CharacterID: "dave", ReactTo: ReactToConversation},
	}, plan.Cast)
}

func TestParsePlanMissingReactToDefaultsToConversation(t *testing.T) {
	plan := ParsePlan(`{"cast": [{"characterId": "statler"}]}`, enabledIDs)
	require.Len(t, plan.Cast, 1)
	assert.Equal(t, ReactToConversation, plan.Cast[0].ReactTo)
}

func TestParsePlanTruncatesCast(t *testing.T) {
	raw := `{"cast": [
		{"characterId": "waldorf"}, {"characterId": "statler"},
		{"characterId": "dave"}, {"characterId": "waldorf"}
	]}`
	plan := ParsePlan(raw, enabledIDs)
	assert.Len(t, plan.Cast, MaxCast)
}

func TestParsePlanStripsCodeFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json tag", "```json\n{\"cast\": [{\"characterId\": \"statler\", \"reactTo\": \"conversation\"}]}\n```"},
		{"bare fence", "```\n{\"cast\": [{\"characterId\": \"statler\"}]}\n```"},
		{"single line", "```json {\"cast\": [{\"characterId\": \"statler\"}]}```"},
		{"surrounding whitespace", "\n\n  ```json\n{\"cast\": [{\"characterId\": \"statler\"}]}\n```  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ParsePlan(tt.raw, enabledIDs)
			assert.Equal(t, KindValid, plan.Kind)
			require.Len(t, plan.Cast, 1)
			assert.Equal(t, "statler", plan.Cast[0].CharacterID)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	context := []conversation.Message{
		{Role: conversation.RoleUser, Text: "How do I centre a div?", Index: 0},
		{Role: conversation.RoleAssistant, Text: "Use flexbox.", Index: 1},
	}
	roster := []RosterEntry{
		{ID: "waldorf", Name: "Waldorf", Summary: "Grumpy balcony critic"},
		{ID: "statler", Name: "Statler", Summary: "Waldorf's partner in crime"},
	}
	history := []Round{
		{ID: "round-1", Comments: []Comment{{CharacterName: "Waldorf", Text: "Boo!"}}},
		{ID: "round-2"},
		{ID: "round-3", Comments: []Comment{{CharacterName: "Statler", Text: "Bravo, I guess."}}},
		{ID: "round-4", Comments: []Comment{{CharacterName: "Waldorf", Text: "Encore? Never."}}},
	}

	prompt := BuildPrompt(context, roster, history)

	assert.Contains(t, prompt.System, "at most 3")
	assert.Contains(t, prompt.System, "JSON only")
	assert.Contains(t, prompt.User, "[user]: How do I centre a div?")
	assert.Contains(t, prompt.User, "[assistant]: Use flexbox.")
	assert.Contains(t, prompt.User, "- waldorf (Waldorf): Grumpy balcony critic")
	assert.Contains(t, prompt.User, "- statler (Statler): Waldorf's partner in crime")

	// Only the last three rounds are shown.
	assert.NotContains(t, prompt.User, "round-1")
	assert.NotContains(t, prompt.User, "Boo!")
	assert.Contains(t, prompt.User, "round-2:\n  (silence)")
	assert.Contains(t, prompt.User, `Statler: "Bravo, I guess."`)
	assert.Contains(t, prompt.User, `Waldorf: "Encore? Never."`)
}

func TestBuildPromptWithoutHistory(t *testing.T) {
	prompt := BuildPrompt(nil, []RosterEntry{{ID: "dave", Name: "Dave", Summary: "Tech bro"}}, nil)
	assert.Contains(t, prompt.User, "(nothing yet)")
	assert.False(t, strings.Contains(prompt.User, "Recent rounds"))
}
