// Package director plans commentary rounds: which characters speak, in what
// order, and what each one reacts to.
package director

import (
	"fmt"
	"strings"

	"github.com/mattsolo1/grove-gallery/pkg/conversation"
)

// ReactToConversation is the reactTo target meaning "the conversation itself".
const ReactToConversation = "conversation"

// MaxCast is the largest cast a plan may contain.
const MaxCast = 3

// MaxHistory is how many past rounds are shown to the director.
const MaxHistory = 3

// Kind tells a plan the director actually produced from a synthesized one.
type Kind string

const (
	KindValid    Kind = "valid"
	KindFallback Kind = "fallback"
)

// CastEntry is one speaking slot in a plan.
type CastEntry struct {
	CharacterID string `json:"characterId"`
	ReactTo     string `json:"reactTo"`
	Note        string `json:"note"`
}

// Plan is a validated cast plan. Reason explains a fallback.
type Plan struct {
	Kind   Kind
	Cast   []CastEntry
	Reason string
}

// IsFallback reports whether the plan was synthesized.
func (p Plan) IsFallback() bool {
	return p.Kind == KindFallback
}

// RosterEntry is what the director knows about a character.
type RosterEntry struct {
	ID      string
	Name    string
	Summary string
}

// Comment is one line of commentary from a past round.
type Comment struct {
	CharacterName string
	Text          string
}

// Round is the record of one past round. An empty Comments slice is a
// silent round.
type Round struct {
	ID       string
	Comments []Comment
}

// Prompt is the director request.
type Prompt struct {
	System string
	User   string
}

// Fallback returns the single-character plan used whenever the director
// cannot be trusted: the first enabled character reacting to the
// conversation, or an empty cast when nobody is enabled.
func Fallback(enabledIDs []string, reason string) Plan {
	plan := Plan{Kind: KindFallback, Cast: []CastEntry{}, Reason: reason}
	if len(enabledIDs) > 0 {
		plan.Cast = append(plan.Cast, CastEntry{CharacterID: enabledIDs[0], ReactTo: ReactToConversation})
	}
	return plan
}

const systemPrompt = `You are the director of a peanut gallery: a small troupe of hecklers watching a conversation between a user and an AI assistant.

After each exchange you decide who, if anyone, speaks next. Rules:
- Choose at most 3 characters, in speaking order. Choosing nobody is fine; silence keeps the act fresh.
- Only use character ids from the roster.
- "reactTo" is either "conversation" or the id of a character who speaks EARLIER in your cast.
- "note" is a short stage direction for that character (may be empty).
- Avoid repeating what the gallery said in recent rounds.

Respond with JSON only, no prose:
{"cast": [{"characterId": "...", "reactTo": "conversation", "note": "..."}]}`

// BuildPrompt assembles the director request from the trimmed conversation
// context, the enabled roster and the recent round history.
func BuildPrompt(context []conversation.Message, roster []RosterEntry, history []Round) Prompt {
	var b strings.Builder

	b.WriteString("Recent conversation:\n")
	if len(context) == 0 {
		b.WriteString("(nothing yet)\n")
	}
	for _, m := range context {
		fmt.Fprintf(&b, "[%s]: %s\n", m.Role, m.Text)
	}

	b.WriteString("\nAvailable characters:\n")
	for _, r := range roster {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.ID, r.Name, r.Summary)
	}

	if len(history) > 0 {
		if len(history) > MaxHistory {
			history = history[len(history)-MaxHistory:]
		}
		b.WriteString("\nRecent rounds:\n")
		for _, round := range history {
			fmt.Fprintf(&b, "%s:\n", round.ID)
			if len(round.Comments) == 0 {
				b.WriteString("  (silence)\n")
				continue
			}
			for _, c := range round.Comments {
				fmt.Fprintf(&b, "  %s: \"%s\"\n", c.CharacterName, c.Text)
			}
		}
	}

	b.WriteString("\nWho speaks next?")
	return Prompt{System: systemPrompt, User: b.String()}
}
