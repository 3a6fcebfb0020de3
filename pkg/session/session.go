// Package session wires a snapshot source to the differ and the commentary
// engine, and forwards what they produce to a sink.
package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mattsolo1/grove-gallery/pkg/characters"
	"github.com/mattsolo1/grove-gallery/pkg/conversation"
	"github.com/mattsolo1/grove-gallery/pkg/differ"
	"github.com/mattsolo1/grove-gallery/pkg/engine"
	"github.com/mattsolo1/grove-gallery/pkg/logging"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultIntroDelay   = 4 * time.Second
	DefaultRecentLimit  = 8

	maxSlugLength = 30
)

// Source supplies conversation snapshots.
type Source interface {
	Snapshot(ctx context.Context) (conversation.Snapshot, error)
}

// NowShowing announces the conversation being watched. Roast is empty until
// the title has been heckled.
type NowShowing struct {
	ConversationID string   `json:"conversationId"`
	Title          string   `json:"title"`
	CharacterNames []string `json:"characterNames"`
	Roast          string   `json:"roast,omitempty"`
}

// Sink receives everything the session shows.
type Sink interface {
	NowShowing(NowShowing)
	Comment(engine.CommentEvent)
}

// Commentator is the part of the engine the session drives.
type Commentator interface {
	GenerateCommentary(ctx context.Context, req engine.CommentaryRequest, onComment func(engine.CommentEvent)) []engine.CommentEvent
	GenerateIntro(ctx context.Context, title string, recent []conversation.Message, conversationID string) *engine.CommentEvent
	RoastTitle(ctx context.Context, title string) (string, bool)
	Characters() []characters.Character
}

// Config tunes a Session. Zero values take the defaults.
type Config struct {
	PollInterval time.Duration
	IntroDelay   time.Duration
	RecentLimit  int
	Differ       differ.Config
	Clock        clock.Clock
	Logger       logging.Logger
}

// Session follows one snapshot source. Poll is not reentrant: a poll that
// starts while another is running returns immediately.
type Session struct {
	source Source
	engine Commentator
	sink   Sink
	differ *differ.Differ
	clock  clock.Clock
	logger logging.Logger
	cfg    Config

	// bg scopes background rounds, roasts and intros; Close cancels it.
	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	polling atomic.Bool

	mu             sync.Mutex
	conversationID string
	title          string
	started        bool
	recent         []conversation.Message
	closed         bool
}

// New creates a Session.
func New(source Source, commentator Commentator, sink Sink, cfg Config) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.IntroDelay <= 0 {
		cfg.IntroDelay = DefaultIntroDelay
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Differ.Clock == nil {
		cfg.Differ.Clock = cfg.Clock
	}
	if cfg.Differ.Logger == nil {
		cfg.Differ.Logger = cfg.Logger
	}

	bg, cancel := context.WithCancel(context.Background())
	s := &Session{
		source: source,
		engine: commentator,
		sink:   sink,
		differ: differ.New(&cfg.Differ),
		clock:  cfg.Clock,
		logger: cfg.Logger,
		cfg:    cfg,
		bg:     bg,
		cancel: cancel,
	}
	s.differ.OnMessageSettled(s.onSettled)
	return s
}

// Run polls immediately and then every poll interval until ctx is done. Poll
// errors are logged; the source is expected to recover on its own.
func (s *Session) Run(ctx context.Context) error {
	ticker := s.clock.Ticker(s.cfg.PollInterval)
	defer ticker.Stop()

	s.pollAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.pollAndLog(ctx)
		}
	}
}

func (s *Session) pollAndLog(ctx context.Context) {
	if err := s.Poll(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("Poll failed", "error", err)
	}
}

// Poll reads one snapshot and feeds it through the differ.
func (s *Session) Poll(ctx context.Context) error {
	if !s.polling.CompareAndSwap(false, true) {
		return nil
	}
	defer s.polling.Store(false)

	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	switched := !s.started || snap.Title != s.title
	if switched {
		s.started = true
		s.title = snap.Title
		s.conversationID = ConversationID(snap.Title, s.clock.Now())
		s.recent = nil
	}
	convID := s.conversationID
	s.mu.Unlock()

	if switched {
		s.logger.Info("Now showing", "title", snap.Title, "conversation_id", convID)
		s.sink.NowShowing(s.nowShowing(convID, snap.Title, ""))
		s.goBackground(func() { s.openCurtain(convID, snap.Title) })
	}

	ready := s.differ.Diff(snap.Title, snap.Messages)
	if len(ready) > 0 {
		s.addRecent(ready)
		for _, m := range ready {
			s.logger.Debug("New message", "role", m.Role, "text", conversation.Truncate(m.Text, 80))
		}
	}
	return nil
}

// ConversationID returns the id of the conversation being shown.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Close stops the differ, cancels background work and waits for it.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.differ.Close()
	s.cancel()
	s.wg.Wait()
}

// openCurtain roasts the title and, after the intro delay, has a character
// introduce the show. Each step is abandoned once the conversation changes.
func (s *Session) openCurtain(convID, title string) {
	if roast, ok := s.engine.RoastTitle(s.bg, title); ok && s.isCurrent(convID) {
		s.sink.NowShowing(s.nowShowing(convID, title, roast))
	}
	if !s.isCurrent(convID) {
		return
	}

	timer := s.clock.Timer(s.cfg.IntroDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.bg.Done():
		return
	}
	if !s.isCurrent(convID) {
		return
	}

	intro := s.engine.GenerateIntro(s.bg, title, s.recentCopy(), convID)
	if intro == nil {
		return
	}
	s.logger.Info("Intro", "character", intro.CharacterName, "text", intro.Text)
	s.forward(*intro)
}

func (s *Session) onSettled(msg conversation.Message) {
	s.mu.Lock()
	if s.closed || s.conversationID == "" {
		s.mu.Unlock()
		return
	}
	s.appendRecentLocked([]conversation.Message{msg})
	req := engine.CommentaryRequest{
		NewMessage:     msg,
		Recent:         append([]conversation.Message(nil), s.recent...),
		ConversationID: s.conversationID,
	}
	s.mu.Unlock()

	s.logger.Debug("Assistant message settled", "index", msg.Index, "conversation_id", req.ConversationID)
	s.goBackground(func() {
		s.engine.GenerateCommentary(s.bg, req, s.forward)
	})
}

// forward hands a comment to the sink unless its conversation is no longer
// on screen.
func (s *Session) forward(ev engine.CommentEvent) {
	if !s.isCurrent(ev.ConversationID) {
		s.logger.Info("Dropping stale comment", "character", ev.CharacterName, "conversation_id", ev.ConversationID)
		return
	}
	s.logger.Info("Comment", "character", ev.CharacterName, "text", ev.Text)
	s.sink.Comment(ev)
}

func (s *Session) goBackground(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Session) nowShowing(convID, title, roast string) NowShowing {
	return NowShowing{
		ConversationID: convID,
		Title:          title,
		CharacterNames: characters.Names(characters.Enabled(s.engine.Characters())),
		Roast:          roast,
	}
}

func (s *Session) isCurrent(convID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return convID == s.conversationID
}

func (s *Session) addRecent(msgs []conversation.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendRecentLocked(msgs)
}

func (s *Session) appendRecentLocked(msgs []conversation.Message) {
	s.recent = conversation.Tail(append(s.recent, msgs...), s.cfg.RecentLimit)
}

func (s *Session) recentCopy() []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]conversation.Message(nil), s.recent...)
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// ConversationID mints an id for a conversation first seen at now:
// conv-<unix millis>-<slug of the title>.
func ConversationID(title string, now time.Time) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return fmt.Sprintf("conv-%d-%s", now.UnixMilli(), slug)
}
