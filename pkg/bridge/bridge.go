// Package bridge talks to the accessibility helper process that reads the
// chat application's window.
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mattsolo1/grove-gallery/pkg/conversation"
	"github.com/mattsolo1/grove-gallery/pkg/exec"
	"github.com/mattsolo1/grove-gallery/pkg/logging"
)

const (
	DefaultCommandTimeout = 10 * time.Second
	DefaultRestartStep    = 2 * time.Second
	DefaultRestartCap     = 15 * time.Second
	DefaultRestartDecay   = 60 * time.Second
	DefaultMaxRestarts    = 10

	// maxLineSize bounds one response line; long conversations are big.
	maxLineSize = 32 * 1024 * 1024
)

var (
	ErrClosed     = errors.New("bridge closed")
	ErrNotRunning = errors.New("helper not running")
	ErrTimeout    = errors.New("helper command timed out")
	ErrGaveUp     = errors.New("helper crashed too many times")
)

// Options configures a Bridge. Zero values take the defaults.
type Options struct {
	HelperPath     string
	Executor       exec.CommandExecutor
	Logger         logging.Logger
	Clock          clock.Clock
	CommandTimeout time.Duration
	RestartStep    time.Duration
	RestartCap     time.Duration
	RestartDecay   time.Duration
	MaxRestarts    int
}

type reply struct {
	line []byte
	err  error
}

// Bridge runs the helper and exchanges newline-delimited JSON with it. One
// command is in flight at a time; later callers wait their turn. The helper
// is restarted with a linear backoff when it exits unexpectedly.
type Bridge struct {
	opts   Options
	logger logging.Logger
	clock  clock.Clock

	// slot holds a token while a command is in flight.
	slot chan struct{}

	mu           sync.Mutex
	proc         exec.Process
	stdin        io.WriteCloser
	generation   int
	active       chan reply
	closed       bool
	restartCount int
	lastCrash    time.Time

	events    chan AppActivated
	fatal     chan struct{}
	fatalOnce sync.Once
}

// New creates a Bridge. Call Start to launch the helper.
func New(opts Options) *Bridge {
	if opts.Executor == nil {
		opts.Executor = &exec.RealCommandExecutor{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.RestartStep <= 0 {
		opts.RestartStep = DefaultRestartStep
	}
	if opts.RestartCap <= 0 {
		opts.RestartCap = DefaultRestartCap
	}
	if opts.RestartDecay <= 0 {
		opts.RestartDecay = DefaultRestartDecay
	}
	if opts.MaxRestarts <= 0 {
		opts.MaxRestarts = DefaultMaxRestarts
	}
	return &Bridge{
		opts:   opts,
		logger: opts.Logger,
		clock:  opts.Clock,
		slot:   make(chan struct{}, 1),
		events: make(chan AppActivated, 16),
		fatal:  make(chan struct{}),
	}
}

// Start launches the helper process.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	return b.spawnLocked()
}

// Events delivers app activation pushes. It is closed by Close.
func (b *Bridge) Events() <-chan AppActivated {
	return b.events
}

// Fatal is closed once the helper has crashed too often to be restarted.
func (b *Bridge) Fatal() <-chan struct{} {
	return b.fatal
}

// ListApps asks the helper for the running applications.
func (b *Bridge) ListApps(ctx context.Context) ([]AppInfo, error) {
	line, err := b.send(ctx, command{Command: "list-apps"})
	if err != nil {
		return nil, err
	}
	return decodeApps(line)
}

// ReadConversation reads the conversation on screen in the app with pid.
func (b *Bridge) ReadConversation(ctx context.Context, pid int) (conversation.Snapshot, error) {
	line, err := b.send(ctx, command{Command: "read-conversation", PID: pid})
	if err != nil {
		return conversation.Snapshot{}, err
	}
	return decodeConversation(line)
}

// Close fails any waiting command, stops restarts and kills the helper.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.failActiveLocked(ErrClosed)
	close(b.events)
	return b.stopLocked()
}

func (b *Bridge) send(ctx context.Context, cmd command) ([]byte, error) {
	data, err := encodeCommand(cmd)
	if err != nil {
		return nil, err
	}

	timer := b.clock.Timer(b.opts.CommandTimeout)
	defer timer.Stop()

	select {
	case b.slot <- struct{}{}:
	case <-timer.C:
		return nil, fmt.Errorf("%s: %w", cmd.Command, ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-b.slot }()

	ch := make(chan reply, 1)
	b.mu.Lock()
	switch {
	case b.closed:
		b.mu.Unlock()
		return nil, ErrClosed
	case b.proc == nil:
		b.mu.Unlock()
		select {
		case <-b.fatal:
			return nil, ErrGaveUp
		default:
			return nil, ErrNotRunning
		}
	}
	b.active = ch
	stdin := b.stdin
	b.mu.Unlock()

	if _, err := stdin.Write(data); err != nil {
		b.clearActive(ch)
		return nil, fmt.Errorf("write %s command: %w", cmd.Command, err)
	}

	select {
	case r := <-ch:
		return r.line, r.err
	case <-timer.C:
		b.clearActive(ch)
		return nil, fmt.Errorf("%s: %w", cmd.Command, ErrTimeout)
	case <-ctx.Done():
		b.clearActive(ch)
		return nil, ctx.Err()
	}
}

func (b *Bridge) clearActive(ch chan reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == ch {
		b.active = nil
	}
}

func (b *Bridge) spawnLocked() error {
	proc, err := b.opts.Executor.Start(b.opts.HelperPath)
	if err != nil {
		return fmt.Errorf("start helper: %w", err)
	}
	b.generation++
	b.proc = proc
	b.stdin = proc.Stdin()

	gen := b.generation
	go b.readLoop(proc.Stdout(), gen)
	go b.logStderr(proc.Stderr())
	go b.waitExit(proc, gen)
	b.logger.Info("Helper started", "path", b.opts.HelperPath, "generation", gen)
	return nil
}

func (b *Bridge) stopLocked() error {
	if b.proc == nil {
		return nil
	}
	proc := b.proc
	b.proc = nil
	b.stdin.Close()
	return proc.Kill()
}

func (b *Bridge) readLoop(r io.Reader, gen int) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		b.handleLine(append([]byte(nil), line...), gen)
	}
	if err := scanner.Err(); err != nil {
		b.logger.Warn("Helper output unreadable", "error", err)
	}
}

func (b *Bridge) handleLine(line []byte, gen int) {
	typ := responseType(line)

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		return
	}

	if typ == typeAppActivated {
		ev, err := decodeAppActivated(line)
		if err != nil {
			b.logger.Warn("Dropping malformed push event", "error", err)
			return
		}
		if !b.closed {
			select {
			case b.events <- ev:
			default:
				b.logger.Debug("Event buffer full; dropping app activation", "bundle_id", ev.BundleID)
			}
		}
		return
	}

	if b.active == nil {
		b.logger.Warn("Response with no command in flight", "type", typ, "bytes", len(line))
		return
	}

	var r reply
	switch typ {
	case typeError:
		r.err = decodeError(line)
	case typeApps, typeConversation:
		r.line = line
		b.restartCount = 0
	default:
		r.err = fmt.Errorf("unexpected helper response type %q", typ)
	}
	b.active <- r
	b.active = nil
}

func (b *Bridge) logStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		b.logger.Debug("Helper stderr", "line", scanner.Text())
	}
}

func (b *Bridge) waitExit(proc exec.Process, gen int) {
	err := proc.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		return
	}
	b.proc = nil
	b.failActiveLocked(fmt.Errorf("helper exited unexpectedly: %v", err))
	if b.closed {
		return
	}
	b.logger.Warn("Helper exited", "error", err)
	b.restartLocked()
}

func (b *Bridge) failActiveLocked(err error) {
	if b.active == nil {
		return
	}
	b.active <- reply{err: err}
	b.active = nil
}

// restartLocked schedules a respawn. The attempt counter decays when the
// previous crash was long ago, so a machine waking from sleep is not treated
// as a crash loop.
func (b *Bridge) restartLocked() {
	now := b.clock.Now()
	if !b.lastCrash.IsZero() && now.Sub(b.lastCrash) > b.opts.RestartDecay {
		b.restartCount = 0
	}
	b.lastCrash = now

	if b.restartCount >= b.opts.MaxRestarts {
		b.logger.Error("Helper keeps crashing; giving up", "attempts", b.restartCount)
		b.fatalOnce.Do(func() { close(b.fatal) })
		return
	}

	b.restartCount++
	delay := b.backoff(b.restartCount)
	b.logger.Info("Restarting helper", "delay", delay, "attempt", b.restartCount)

	b.clock.AfterFunc(delay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closed || b.proc != nil {
			return
		}
		if err := b.spawnLocked(); err != nil {
			b.logger.Error("Helper restart failed", "error", err)
			b.restartLocked()
		}
	})
}

// backoff grows linearly with the attempt number up to the cap.
func (b *Bridge) backoff(attempt int) time.Duration {
	delay := b.opts.RestartStep * time.Duration(attempt)
	if delay > b.opts.RestartCap {
		return b.opts.RestartCap
	}
	return delay
}

// RestartCount reports the current restart attempt counter.
func (b *Bridge) RestartCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.restartCount
}

// Running reports whether a helper process is live.
func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.proc != nil
}
