package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mattsolo1/grove-gallery/pkg/conversation"
	"github.com/mattsolo1/grove-gallery/pkg/logging"
)

// ChatAppBundleID identifies the desktop chat application being watched.
const ChatAppBundleID = "com.anthropic.claudefordesktop"

// ErrAppNotRunning is returned while the chat application cannot be found.
var ErrAppNotRunning = errors.New("chat application is not running")

// Source reads snapshots of the chat application's conversation through a
// Bridge, locating the application by bundle id.
type Source struct {
	bridge   *Bridge
	bundleID string
	logger   logging.Logger

	mu  sync.Mutex
	pid int
}

// NewSource creates a Source. An empty bundleID means ChatAppBundleID.
func NewSource(b *Bridge, bundleID string, logger logging.Logger) *Source {
	if bundleID == "" {
		bundleID = ChatAppBundleID
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Source{bridge: b, bundleID: bundleID, logger: logger}
}

// Snapshot reads the conversation currently on screen.
func (s *Source) Snapshot(ctx context.Context) (conversation.Snapshot, error) {
	pid, err := s.locate(ctx)
	if err != nil {
		return conversation.Snapshot{}, err
	}

	snap, err := s.bridge.ReadConversation(ctx, pid)
	if err != nil {
		var helperErr *Error
		if errors.As(err, &helperErr) && helperErr.Code == CodeNoWindow {
			// The app may have quit; look it up again next time.
			s.forget(pid)
		}
		return conversation.Snapshot{}, err
	}
	return snap, nil
}

// Follow tracks app activation pushes so a relaunched app is picked up
// without a lookup. It returns when ctx is done or the bridge closes.
func (s *Source) Follow(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.bridge.Events():
			if !ok {
				return
			}
			if ev.BundleID != s.bundleID {
				continue
			}
			s.mu.Lock()
			if s.pid != ev.PID {
				s.logger.Info("Chat app activated", "pid", ev.PID)
			}
			s.pid = ev.PID
			s.mu.Unlock()
		}
	}
}

func (s *Source) locate(ctx context.Context) (int, error) {
	s.mu.Lock()
	pid := s.pid
	s.mu.Unlock()
	if pid != 0 {
		return pid, nil
	}

	apps, err := s.bridge.ListApps(ctx)
	if err != nil {
		return 0, fmt.Errorf("list apps: %w", err)
	}
	for _, app := range apps {
		if app.BundleIdentifier == s.bundleID {
			s.mu.Lock()
			s.pid = app.PID
			s.mu.Unlock()
			s.logger.Info("Found chat app", "name", app.Name, "pid", app.PID)
			return app.PID, nil
		}
	}
	return 0, ErrAppNotRunning
}

func (s *Source) forget(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pid == pid {
		s.pid = 0
	}
}
