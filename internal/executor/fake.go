package executor

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"sync"
)

// FakeCommand is a function that simulates a command execution.
// It receives the environment, stdin, stdout, stderr and command arguments
// and returns an exit code. The context is cancelled when the process is
// killed.
type FakeCommand func(ctx context.Context, env map[string]string, stdin io.Reader, stdout, stderr io.Writer, args []string) int

// FakeExecutor is a test implementation of Executor that runs registered fake commands.
type FakeExecutor struct {
	mu       sync.RWMutex
	commands map[string]FakeCommand
	started  [][]string
}

// NewFakeExecutor creates a new FakeExecutor.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		commands: make(map[string]FakeCommand),
	}
}

// RegisterCommand registers a fake command implementation.
// The name should match the first element of the command slice.
func (e *FakeExecutor) RegisterCommand(name string, handler FakeCommand) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands[name] = handler
}

// Started returns the command lines passed to Start so far.
func (e *FakeExecutor) Started() [][]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([][]string, len(e.started))
	copy(out, e.started)
	return out
}

// fakeProcess implements Process for FakeExecutor.
type fakeProcess struct {
	cancel   context.CancelFunc
	done     chan struct{}
	exitCode int
	mu       sync.Mutex
}

func (p *fakeProcess) Wait() (int, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, nil
}

func (p *fakeProcess) Kill() error {
	p.cancel()
	return nil
}

func (p *fakeProcess) Pid() int { return 0 }

// Start implements Executor.Start for FakeExecutor.
func (e *FakeExecutor) Start(cmdArgs []string, env map[string]string, stdin io.Reader, stdout, stderr io.Writer) (Process, error) {
	if len(cmdArgs) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	e.mu.Lock()
	handler, ok := e.commands[cmdArgs[0]]
	e.started = append(e.started, append([]string(nil), cmdArgs...))
	e.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("executable %q not found", cmdArgs[0])
	}

	// Dup the stdin descriptor if it is a file, since the caller may close
	// it after Start returns while the handler goroutine still reads it.
	var stdinFile *os.File
	var stdinReader io.Reader = stdin
	if f, ok := stdin.(*os.File); ok {
		dup, err := dupFile(f)
		if err != nil {
			return nil, fmt.Errorf("dup stdin: %w", err)
		}
		if dup != f {
			stdinFile = dup
		}
		stdinReader = dup
	}
	if stdinReader == nil {
		stdinReader = eofReader{}
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	proc := &fakeProcess{
		cancel: cancel,
		done:   done,
	}

	go func() {
		defer cancel()
		defer func() {
			if stdinFile != nil {
				stdinFile.Close()
			}
		}()

		exitCode := handler(ctx, maps.Clone(env), stdinReader, stdout, stderr, cmdArgs)
		proc.mu.Lock()
		proc.exitCode = exitCode
		proc.mu.Unlock()
		close(done)
	}()

	return proc, nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
