package engine

import (
	"fmt"
	"strings"

	"github.com/mattsolo1/grove-gallery/pkg/characters"
	"github.com/mattsolo1/grove-gallery/pkg/conversation"
	"github.com/mattsolo1/grove-gallery/pkg/llm"
)

const (
	roastSystemPrompt = "You are a snarky theatre critic. Given a conversation title, roast or heckle it in one witty line of 8 words or fewer. No quotes. Just the roast."
	roastTemperature  = 1.0
	roastMaxTokens    = 30

	introMaxTokens = 80
)

// trimContext keeps the last MaxContextMessages messages and truncates each
// one's text.
func trimContext(msgs []conversation.Message) []conversation.Message {
	tail := conversation.Tail(msgs, MaxContextMessages)
	for i := range tail {
		tail[i].Text = conversation.Truncate(tail[i].Text, MaxMessageChars)
	}
	return tail
}

func formatContext(msgs []conversation.Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = fmt.Sprintf("[%s]: %s", m.Role, m.Text)
	}
	return strings.Join(lines, "\n\n")
}

// reaction is the comment a cast entry answers, when it has one.
type reaction struct {
	name string
	text string
}

func commentPrompt(convo []conversation.Message, target *reaction, note string) string {
	var b strings.Builder
	b.WriteString("Here's the recent conversation you're watching:\n\n")
	b.WriteString(formatContext(convo))
	if target != nil {
		fmt.Fprintf(&b, "\n\nReact to what %s just said: \"%s\"", target.name, target.text)
	} else {
		b.WriteString("\n\nGive your commentary on this conversation.")
	}
	if note != "" {
		fmt.Fprintf(&b, "\n\nDirector's note: %s", note)
	}
	return b.String()
}

func personaFor(c characters.Character) llm.Persona {
	return llm.Persona{
		SystemPrompt: c.SystemPrompt,
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
	}
}

// introPersona frames any character as a reluctant announcer opening the
// show. It replaces the character's own system prompt.
func introPersona(c characters.Character) llm.Persona {
	system := fmt.Sprintf(`You are %s, a heckler in a peanut gallery. %s
The stage manager has forced you to announce the show that is about to start, and you are not happy about it.
Introduce the conversation in one or two short sentences, in character, grudgingly. No quotes, no stage directions.`,
		c.Name, c.Summary)
	return llm.Persona{SystemPrompt: system, Temperature: c.Temperature, MaxTokens: introMaxTokens}
}

func introPrompt(title string, convo []conversation.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tonight's conversation: \"%s\"\n", title)
	if len(convo) > 0 {
		b.WriteString("\nWhat's on stage so far:\n\n")
		b.WriteString(formatContext(convo))
		b.WriteString("\n")
	}
	b.WriteString("\nAnnounce it:")
	return b.String()
}

func roastRequest(title string) llm.Request {
	return llm.Request{
		Persona: llm.Persona{
			SystemPrompt: roastSystemPrompt,
			Temperature:  roastTemperature,
			MaxTokens:    roastMaxTokens,
		},
		Prompt: fmt.Sprintf("Conversation title: \"%s\"\n\nRoast it:", title),
	}
}
