package session

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattsolo1/grove-gallery/pkg/conversation"
)

// ReplaySource plays back recorded snapshots, one per call. Once the
// recording is exhausted the last snapshot repeats and Done is closed.
type ReplaySource struct {
	mu        sync.Mutex
	snapshots []conversation.Snapshot
	next      int
	done      chan struct{}
	doneOnce  sync.Once
}

// LoadReplay reads a JSON Lines recording from path.
func LoadReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()
	return NewReplaySource(f)
}

// NewReplaySource reads a JSON Lines recording, one snapshot per line. Blank
// lines and lines starting with # are skipped.
func NewReplaySource(r io.Reader) (*ReplaySource, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var snapshots []conversation.Snapshot
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var snap conversation.Snapshot
		if err := json.Unmarshal(line, &snap); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", lineNo, err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, errors.New("replay contains no snapshots")
	}
	return &ReplaySource{snapshots: snapshots, done: make(chan struct{})}, nil
}

// Snapshot returns the next recorded snapshot.
func (r *ReplaySource) Snapshot(ctx context.Context) (conversation.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return conversation.Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.snapshots[r.next]
	if r.next < len(r.snapshots)-1 {
		r.next++
	} else {
		r.doneOnce.Do(func() { close(r.done) })
	}
	return snap, nil
}

// Done is closed once the final snapshot has been served.
func (r *ReplaySource) Done() <-chan struct{} {
	return r.done
}

// Len returns the number of recorded snapshots.
func (r *ReplaySource) Len() int {
	return len(r.snapshots)
}
