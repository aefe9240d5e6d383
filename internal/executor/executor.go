// Package executor provides an abstraction for starting target processes.
package executor

import (
	"errors"
	"io"
	"os/exec"
	"sort"
)

// Process represents a running target.
type Process interface {
	// Wait blocks until the process exits and returns the exit code.
	// A process killed by a signal reports -1.
	Wait() (exitCode int, err error)
	// Kill sends SIGKILL to the process and its group.
	Kill() error
	// Pid returns the process id, or 0 for processes that are not real.
	Pid() int
}

// Executor starts processes.
type Executor interface {
	// Start starts cmd with exactly the environment in env.
	Start(cmd []string, env map[string]string, stdin io.Reader, stdout, stderr io.Writer) (Process, error)
}

// ExecExecutor is the default Executor that uses os/exec.
type ExecExecutor struct{}

// execProcess wraps exec.Cmd to implement Process.
type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, err
	}
	return 0, nil
}

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	killGroup(p.cmd.Process.Pid)
	return p.cmd.Process.Kill()
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Start implements Executor.Start using os/exec. The command name is
// resolved against the caller's PATH, not the one in env.
func (e *ExecExecutor) Start(cmdArgs []string, env map[string]string, stdin io.Reader, stdout, stderr io.Writer) (Process, error) {
	if len(cmdArgs) == 0 {
		return nil, errors.New("empty command")
	}
	cmd := exec.Command(cmdArgs[0], cmdArgs[1:]...)
	cmd.Env = EnvList(env)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// Own process group so a timeout can take down the whole target.
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &execProcess{cmd: cmd}, nil
}

// Default returns the default ExecExecutor.
func Default() Executor {
	return &ExecExecutor{}
}

// EnvList renders env as sorted KEY=VALUE pairs. A nil or empty map yields
// an empty, non-nil slice so exec does not fall back to os.Environ.
func EnvList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
