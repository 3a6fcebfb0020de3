package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("engine", &buf)

	log.Info("Round finished", "round_id", "round-3", "comments", 2, "dangling")

	out := buf.String()
	assert.Contains(t, out, "Round finished")
	assert.Contains(t, out, "component=engine")
	assert.Contains(t, out, "round_id=round-3")
	assert.Contains(t, out, "comments=2")
	assert.NotContains(t, out, "dangling")
}

func TestNewRootWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "main.log")
	root, err := NewRoot(Options{Level: "debug", File: path})
	require.NoError(t, err)

	root.New("differ").Debug("Settling started", "index", 4)
	require.NoError(t, root.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Settling started")
	assert.Contains(t, string(data), "component=differ")
}

func TestNewRootRejectsBadLevel(t *testing.T) {
	_, err := NewRoot(Options{Level: "loud"})
	assert.Error(t, err)
}
