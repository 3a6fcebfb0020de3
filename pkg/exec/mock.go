package exec

import (
	"context"
	"io"
	"strings"
	"sync"
)

// MockCommandExecutor is a mock implementation of CommandExecutor for testing.
// It records all commands that would be executed without actually running them.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Commands records all commands that were run or started
	Commands []string

	// Stdin records what each Run call was fed, in order
	Stdin []string

	// LookPathFunc allows custom behavior for LookPath in tests
	LookPathFunc func(file string) (string, error)

	// RunFunc allows custom behavior for Run in tests
	RunFunc func(ctx context.Context, name string, arg ...string) ([]byte, error)

	// StartFunc allows custom behavior for Start in tests
	StartFunc func(name string, arg ...string) (Process, error)
}

// LookPath implements the CommandExecutor interface for testing.
func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	// By default, assume commands exist
	return "/path/to/" + file, nil
}

// Run records the command and its stdin.
func (m *MockCommandExecutor) Run(ctx context.Context, stdin io.Reader, name string, arg ...string) ([]byte, error) {
	var input string
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		input = string(data)
	}

	m.mu.Lock()
	m.Commands = append(m.Commands, commandString(name, arg))
	m.Stdin = append(m.Stdin, input)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, arg...)
	}
	return nil, nil
}

// Start records the command and delegates to StartFunc.
func (m *MockCommandExecutor) Start(name string, arg ...string) (Process, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, commandString(name, arg))
	m.mu.Unlock()

	if m.StartFunc != nil {
		return m.StartFunc(name, arg...)
	}
	return NewPipeProcess(), nil
}

// CommandCount returns how many commands were recorded.
func (m *MockCommandExecutor) CommandCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Commands)
}

func commandString(name string, arg []string) string {
	if len(arg) == 0 {
		return name
	}
	return name + " " + strings.Join(arg, " ")
}

// PipeProcess is an in-memory Process. Tests play the child's side through
// the exported ends: read what the parent wrote from ChildStdin and write
// replies to ChildStdout.
type PipeProcess struct {
	stdinR, stdoutR, stderrR *io.PipeReader
	stdinW, stdoutW, stderrW *io.PipeWriter

	ChildStdin  io.Reader
	ChildStdout io.WriteCloser
	ChildStderr io.WriteCloser

	once sync.Once
	done chan struct{}
}

// NewPipeProcess wires up an in-memory process.
func NewPipeProcess() *PipeProcess {
	p := &PipeProcess{done: make(chan struct{})}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	p.ChildStdin = p.stdinR
	p.ChildStdout = p.stdoutW
	p.ChildStderr = p.stderrW
	return p
}

func (p *PipeProcess) Stdin() io.WriteCloser { return p.stdinW }
func (p *PipeProcess) Stdout() io.Reader     { return p.stdoutR }
func (p *PipeProcess) Stderr() io.Reader     { return p.stderrR }

// Wait blocks until Exit or Kill is called.
func (p *PipeProcess) Wait() error {
	<-p.done
	return nil
}

// Kill terminates the fake child.
func (p *PipeProcess) Kill() error {
	p.Exit()
	return nil
}

// Exit simulates the child exiting: its output streams close.
func (p *PipeProcess) Exit() {
	p.once.Do(func() {
		p.stdoutW.Close()
		p.stderrW.Close()
		p.stdinR.Close()
		close(p.done)
	})
}
