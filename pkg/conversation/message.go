package conversation

import "unicode/utf8"

// Role identifies the author of a message in the watched conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn read from the chat application.
type Message struct {
	Role      Role    `json:"role" yaml:"role"`
	Text      string  `json:"text" yaml:"text"`
	Timestamp *string `json:"timestamp" yaml:"timestamp,omitempty"`
	Index     int     `json:"index" yaml:"index"`
}

// Snapshot is one full read of the on-screen conversation. Snapshots are not
// incremental; consumers compute deltas themselves.
type Snapshot struct {
	App      string    `json:"app,omitempty"`
	PID      int       `json:"pid,omitempty"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// Tail returns the last n messages. The returned slice is a copy.
func Tail(messages []Message, n int) []Message {
	if n <= 0 {
		return []Message{}
	}
	start := len(messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(messages)-start)
	copy(out, messages[start:])
	return out
}

// Truncate cuts text to max runes, appending "..." when anything was dropped.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "..."
}
