package director

import (
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// ParsePlan validates raw director output against the enabled roster. It never
// fails: anything unusable degrades to the fallback plan, and individual bad
// entries are dropped or repaired.
func ParsePlan(raw string, enabledIDs []string) Plan {
	body := stripFences(raw)
	if !gjson.Valid(body) {
		return Fallback(enabledIDs, "director output is not valid JSON")
	}

	root := gjson.Parse(body)
	if !root.IsObject() {
		return Fallback(enabledIDs, "director output is not a JSON object")
	}
	castField := root.Get("cast")
	if !castField.Exists() {
		return Fallback(enabledIDs, "director output has no cast")
	}
	if !castField.IsArray() {
		return Fallback(enabledIDs, "director cast is not an array")
	}

	plan := Plan{Kind: KindValid, Cast: []CastEntry{}}
	for _, entry := range castField.Array() {
		if !entry.IsObject() {
			continue
		}
		id := entry.Get("characterId")
		if id.Type != gjson.String || !slices.Contains(enabledIDs, id.Str) {
			continue
		}

		reactTo := ReactToConversation
		if target := entry.Get("reactTo"); target.Type == gjson.String && slices.Contains(enabledIDs, target.Str) {
			reactTo = target.Str
		}

		var note string
		if n := entry.Get("note"); n.Type == gjson.String {
			note = n.Str
		}

		plan.Cast = append(plan.Cast, CastEntry{CharacterID: id.Str, ReactTo: reactTo, Note: note})
		if len(plan.Cast) == MaxCast {
			break
		}
	}
	return plan
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
