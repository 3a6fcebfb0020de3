package differ

import (
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mattsolo1/grove-gallery/pkg/conversation"
	"github.com/mattsolo1/grove-gallery/pkg/logging"
)

const (
	DefaultSettleDelay  = 2000 * time.Millisecond
	DefaultContextCount = 3

	// thinkingMarker is the placeholder prefix the chat app shows while the
	// assistant is reasoning. Matched case-insensitively.
	thinkingMarker = "thinking"
)

// Config holds differ tuning knobs. Zero values fall back to the defaults.
type Config struct {
	SettleDelay  time.Duration
	ContextCount int
	Clock        clock.Clock
	Logger       logging.Logger
}

// settling is the single in-flight assistant message whose text may still be
// streaming. timer is nil while the text is a thinking placeholder.
type settling struct {
	text    string
	message conversation.Message
	timer   *clock.Timer
}

// Differ turns successive conversation snapshots into ready messages and
// debounced settled assistant messages.
type Differ struct {
	mu           sync.Mutex
	clock        clock.Clock
	logger       logging.Logger
	settleDelay  time.Duration
	contextCount int

	lastTitle    string
	lastMessages []conversation.Message
	settling     *settling
	generation   uint64
	onSettled    func(conversation.Message)
	closed       bool
}

// New creates a Differ. A nil config uses the defaults.
func New(cfg *Config) *Differ {
	if cfg == nil {
		cfg = &Config{}
	}
	d := &Differ{
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		settleDelay:  cfg.SettleDelay,
		contextCount: cfg.ContextCount,
	}
	if d.clock == nil {
		d.clock = clock.New()
	}
	if d.logger == nil {
		d.logger = logging.Discard()
	}
	if d.settleDelay <= 0 {
		d.settleDelay = DefaultSettleDelay
	}
	if d.contextCount <= 0 {
		d.contextCount = DefaultContextCount
	}
	return d
}

// OnMessageSettled registers the single subscriber for settled assistant
// messages, replacing any previous one.
func (d *Differ) OnMessageSettled(fn func(conversation.Message)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSettled = fn
}

// Diff compares a new snapshot with the previous one and returns the messages
// that are ready right away. Assistant messages are delivered later through the
// settle callback once their text has been stable for the settle delay.
func (d *Differ) Diff(title string, messages []conversation.Message) []conversation.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	ready := []conversation.Message{}

	// Only a title change is a conversation switch. The helper can return a
	// truncated tree for a poll or two, so a shorter list is not one.
	if title != d.lastTitle {
		d.resetSettlingLocked()
		d.lastTitle = title
		d.lastMessages = copyMessages(messages)
		d.logger.Debug("Conversation switch detected", "title", title, "messages", len(messages))
		return conversation.Tail(messages, d.contextCount)
	}

	if len(messages) <= len(d.lastMessages) {
		if len(messages) > 0 {
			last := messages[len(messages)-1]
			if last.Role == conversation.RoleAssistant {
				d.handlePossibleStreamingLocked(last)
			}
		}
		if len(messages) < len(d.lastMessages) {
			d.logger.Debug("Snapshot shrank without a title change",
				"previous", len(d.lastMessages), "current", len(messages))
		}
		d.lastMessages = copyMessages(messages)
		return ready
	}

	appended := messages[len(d.lastMessages):]
	d.lastMessages = copyMessages(messages)

	for _, msg := range appended {
		if msg.Role == conversation.RoleUser {
			ready = append(ready, msg)
			continue
		}
		d.startSettlingLocked(msg)
	}
	return ready
}

// Close cancels any pending settle timer and drops the callback. No callback
// fires after Close returns.
func (d *Differ) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetSettlingLocked()
	d.onSettled = nil
	d.closed = true
}

// Settling reports the text currently waiting to settle, if any.
func (d *Differ) Settling() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settling == nil {
		return "", false
	}
	return d.settling.text, true
}

func (d *Differ) handlePossibleStreamingLocked(msg conversation.Message) {
	if d.settling == nil {
		return
	}
	if d.settling.message.Index != msg.Index {
		return
	}
	if msg.Text != d.settling.text {
		d.startSettlingLocked(msg)
	}
}

func (d *Differ) startSettlingLocked(msg conversation.Message) {
	d.resetSettlingLocked()
	if d.closed {
		return
	}

	state := &settling{text: msg.Text, message: msg}
	d.settling = state

	if isThinking(msg.Text) {
		d.logger.Debug("Assistant is thinking; holding settle timer", "index", msg.Index)
		return
	}

	gen := d.generation
	state.timer = d.clock.AfterFunc(d.settleDelay, func() {
		d.fire(gen)
	})
}

// fire delivers the settled message if the timer that scheduled it is still
// the current one.
func (d *Differ) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || d.settling == nil {
		d.mu.Unlock()
		return
	}
	msg := d.settling.message
	d.settling = nil
	d.generation++
	callback := d.onSettled
	d.mu.Unlock()

	d.logger.Debug("Assistant message settled", "index", msg.Index, "chars", len(msg.Text))
	if callback != nil {
		callback(msg)
	}
}

func (d *Differ) resetSettlingLocked() {
	if d.settling != nil && d.settling.timer != nil {
		d.settling.timer.Stop()
	}
	d.settling = nil
	d.generation++
}

func isThinking(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < len(thinkingMarker) {
		return false
	}
	return strings.EqualFold(trimmed[:len(thinkingMarker)], thinkingMarker)
}

func copyMessages(messages []conversation.Message) []conversation.Message {
	out := make([]conversation.Message, len(messages))
	copy(out, messages)
	return out
}
