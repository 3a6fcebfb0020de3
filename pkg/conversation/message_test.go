package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTail(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Text: "a", Index: 0},
		{Role: RoleAssistant, Text: "b", Index: 1},
		{Role: RoleUser, Text: "c", Index: 2},
		{Role: RoleAssistant, Text: "d", Index: 3},
	}

	tail := Tail(msgs, 3)
	assert.Len(t, tail, 3)
	assert.Equal(t, "b", tail[0].Text)
	assert.Equal(t, "d", tail[2].Text)

	assert.Len(t, Tail(msgs[:2], 3), 2)
	assert.Empty(t, Tail(nil, 3))
	assert.Empty(t, Tail(msgs, 0))

	// Mutating the result must not touch the source slice.
	tail[0].Text = "changed"
	assert.Equal(t, "b", msgs[1].Text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 500))

	long := strings.Repeat("x", 600)
	got := Truncate(long, 500)
	assert.Equal(t, strings.Repeat("x", 500)+"...", got)

	// Multi-byte runes are never split.
	assert.Equal(t, "éé...", Truncate("ééé", 2))
}
