// Package engine runs commentary rounds: it gates them on cooldown and
// concurrency, asks the director for a cast plan and drives each cast entry
// through the generator in order.
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/mattsolo1/grove-gallery/pkg/characters"
	"github.com/mattsolo1/grove-gallery/pkg/conversation"
	"github.com/mattsolo1/grove-gallery/pkg/director"
	"github.com/mattsolo1/grove-gallery/pkg/llm"
	"github.com/mattsolo1/grove-gallery/pkg/logging"
)

// CommentEvent is one line of commentary, emitted once.
type CommentEvent struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	CharacterID    string    `json:"characterId"`
	CharacterName  string    `json:"characterName"`
	Avatar         string    `json:"avatar"`
	Color          string    `json:"color"`
	Text           string    `json:"text"`
	RoundID        string    `json:"roundId"`
	Timestamp      time.Time `json:"timestamp"`
}

// CommentaryRequest is the input of one round.
type CommentaryRequest struct {
	NewMessage     conversation.Message
	Recent         []conversation.Message
	ConversationID string
}

// Engine owns round, cooldown and roster state. It is safe for concurrent
// use; at most one commentary round runs at a time.
type Engine struct {
	gen    llm.Generator
	cfg    Config
	clock  clock.Clock
	logger logging.Logger

	generating atomic.Bool

	// Guarded by the generating gate.
	lastCommentTime time.Time
	roundCounter    int
	history         *history

	rosterMu sync.RWMutex
	roster   []characters.Character

	randMu sync.Mutex
	rand   *rand.Rand
}

// New creates an Engine for the given roster.
func New(gen llm.Generator, roster []characters.Character, cfg Config) *Engine {
	e := &Engine{
		gen:     gen,
		cfg:     cfg,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		history: newHistory(director.MaxHistory),
		rand:    cfg.Rand,
	}
	if e.clock == nil {
		e.clock = clock.New()
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	e.SetCharacters(roster)
	return e
}

// SetCharacters replaces the roster. Rounds already running keep going;
// their remaining cast lookups see the new roster.
func (e *Engine) SetCharacters(roster []characters.Character) {
	cp := make([]characters.Character, len(roster))
	copy(cp, roster)

	e.rosterMu.Lock()
	e.roster = cp
	e.rosterMu.Unlock()
}

// Characters returns a copy of the current roster.
func (e *Engine) Characters() []characters.Character {
	e.rosterMu.RLock()
	defer e.rosterMu.RUnlock()
	cp := make([]characters.Character, len(e.roster))
	copy(cp, e.roster)
	return cp
}

func (e *Engine) enabled() []characters.Character {
	return characters.Enabled(e.Characters())
}

func (e *Engine) lookup(id string) (characters.Character, bool) {
	c, ok := characters.Find(e.enabled(), id)
	return c, ok
}

// GenerateCommentary runs one round. It returns immediately with nothing when
// another round is in flight, the cooldown has not elapsed since the last
// emitted comment, or no character is enabled. Comments are passed to
// onComment as they are produced, in cast order, and also returned.
// Cancelling ctx is reserved for teardown: a started round otherwise runs to
// completion, and cancellation stops it at the next pause or generator call.
func (e *Engine) GenerateCommentary(ctx context.Context, req CommentaryRequest, onComment func(CommentEvent)) []CommentEvent {
	if !e.generating.CompareAndSwap(false, true) {
		e.logger.Debug("Round already in flight; dropping request")
		return nil
	}
	defer e.generating.Store(false)

	if !e.lastCommentTime.IsZero() && e.clock.Since(e.lastCommentTime) < e.cfg.Cooldown {
		e.logger.Debug("Cooling down; skipping round", "since_last", e.clock.Since(e.lastCommentTime))
		return nil
	}

	enabled := e.enabled()
	if len(enabled) == 0 {
		return nil
	}

	e.roundCounter++
	roundID := fmt.Sprintf("round-%d", e.roundCounter)
	requestID := "req-" + uuid.New().String()[:8]
	log := &roundLogger{base: e.logger, fields: []interface{}{"request_id", requestID, "round_id", roundID}}

	recent := req.Recent
	if len(recent) == 0 {
		recent = []conversation.Message{req.NewMessage}
	}
	convo := trimContext(recent)

	plan := e.plan(ctx, convo, enabled, log)
	log.Info("Director plan ready", "kind", plan.Kind, "cast", len(plan.Cast), "reason", plan.Reason)

	var events []CommentEvent
	spoken := make(map[string]reaction, len(plan.Cast))
	round := director.Round{ID: roundID}

	for i, entry := range plan.Cast {
		character, ok := e.lookup(entry.CharacterID)
		if !ok {
			log.Debug("Cast member no longer enabled; skipping", "character", entry.CharacterID)
			continue
		}

		if i > 0 {
			if err := e.pause(ctx); err != nil {
				log.Warn("Round interrupted", "error", err)
				break
			}
		}

		var target *reaction
		if r, ok := spoken[entry.ReactTo]; ok {
			target = &r
		}

		text, err := e.gen.Generate(ctx, llm.Request{
			Persona: personaFor(character),
			Prompt:  commentPrompt(convo, target, entry.Note),
		})
		if err != nil {
			log.Error("Character generation failed", "character", character.ID, "error", err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		event := e.newEvent(character, req.ConversationID, roundID, roundID+"-"+character.ID, text)
		events = append(events, event)
		spoken[character.ID] = reaction{name: character.Name, text: text}
		round.Comments = append(round.Comments, director.Comment{CharacterName: character.Name, Text: text})
		if onComment != nil {
			onComment(event)
		}
	}

	if len(events) > 0 {
		e.lastCommentTime = e.clock.Now()
	}
	e.history.add(round)
	log.Info("Round finished", "comments", len(events))
	return events
}

// plan asks the director for a cast. Any generation failure falls back to the
// single-character plan so the round still says something.
func (e *Engine) plan(ctx context.Context, convo []conversation.Message, enabled []characters.Character, log *roundLogger) director.Plan {
	ids := characters.IDs(enabled)
	roster := make([]director.RosterEntry, len(enabled))
	for i, c := range enabled {
		roster[i] = director.RosterEntry{ID: c.ID, Name: c.Name, Summary: c.Summary}
	}

	prompt := director.BuildPrompt(convo, roster, e.history.snapshot())
	raw, err := e.gen.Generate(ctx, llm.Request{
		Persona: llm.Persona{
			SystemPrompt: prompt.System,
			Temperature:  e.cfg.DirectorTemperature,
			MaxTokens:    e.cfg.DirectorMaxTokens,
		},
		Prompt: prompt.User,
	})
	if err != nil {
		log.Warn("Director call failed; using fallback plan", "error", err)
		return director.Fallback(ids, fmt.Sprintf("director call failed: %v", err))
	}
	return director.ParsePlan(raw, ids)
}

// GenerateIntro has a random enabled character grudgingly announce a new
// conversation. It ignores the round gate and returns nil on any failure.
func (e *Engine) GenerateIntro(ctx context.Context, title string, recent []conversation.Message, conversationID string) *CommentEvent {
	enabled := e.enabled()
	if len(enabled) == 0 {
		return nil
	}
	character := enabled[e.intN(len(enabled))]

	text, err := e.gen.Generate(ctx, llm.Request{
		Persona: introPersona(character),
		Prompt:  introPrompt(title, trimContext(recent)),
	})
	if err != nil {
		e.logger.Error("Intro generation failed", "character", character.ID, "error", err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	roundID := "intro-" + conversationID
	event := e.newEvent(character, conversationID, roundID, conversationID+"-"+character.ID+"-intro", text)
	return &event
}

// RoastTitle heckles a conversation title in a handful of words. The second
// result is false when generation failed.
func (e *Engine) RoastTitle(ctx context.Context, title string) (string, bool) {
	text, err := e.gen.Generate(ctx, roastRequest(title))
	if err != nil {
		e.logger.Error("Title roast failed", "error", err)
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

func (e *Engine) newEvent(c characters.Character, conversationID, roundID, id, text string) CommentEvent {
	return CommentEvent{
		ID:             id,
		ConversationID: conversationID,
		CharacterID:    c.ID,
		CharacterName:  c.Name,
		Avatar:         c.DisplayAvatar(),
		Color:          c.Color,
		Text:           text,
		RoundID:        roundID,
		Timestamp:      e.clock.Now(),
	}
}

// pause waits a random jitter between cast entries.
func (e *Engine) pause(ctx context.Context) error {
	d := e.jitter()
	if d <= 0 {
		return ctx.Err()
	}
	timer := e.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) jitter() time.Duration {
	lo, hi := e.cfg.JitterMin, e.cfg.JitterMax
	if hi <= 0 {
		return 0
	}
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(e.int64N(int64(hi-lo)+1))
}

func (e *Engine) intN(n int) int {
	if e.rand == nil {
		return rand.IntN(n)
	}
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.rand.IntN(n)
}

func (e *Engine) int64N(n int64) int64 {
	if e.rand == nil {
		return rand.Int64N(n)
	}
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return e.rand.Int64N(n)
}

// roundLogger tags every line of a round with its request and round ids.
type roundLogger struct {
	base   logging.Logger
	fields []interface{}
}

func (l *roundLogger) kv(keysAndValues []interface{}) []interface{} {
	return append(append([]interface{}{}, l.fields...), keysAndValues...)
}

func (l *roundLogger) Info(msg string, keysAndValues ...interface{}) {
	l.base.Info(msg, l.kv(keysAndValues)...)
}

func (l *roundLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.base.Warn(msg, l.kv(keysAndValues)...)
}

func (l *roundLogger) Error(msg string, keysAndValues ...interface{}) {
	l.base.Error(msg, l.kv(keysAndValues)...)
}

func (l *roundLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.base.Debug(msg, l.kv(keysAndValues)...)
}
