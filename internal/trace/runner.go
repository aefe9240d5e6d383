// Package trace runs a target against a fresh SysV trace segment and reads
// back the bitmap it leaves behind.
package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mbrock/shmprobe/internal/executor"
	"github.com/mbrock/shmprobe/internal/shm"
)

// ErrTimeout is returned when the target had to be killed because the run
// timed out or its context was cancelled.
var ErrTimeout = errors.New("target timed out")

// Hooks are called around the target's lifetime.
type Hooks struct {
	BeforeStart func()
	AfterExit   func()
}

// Config configures a Runner.
type Config struct {
	// MapSize defaults to shm.MapSize.
	MapSize int
	// Timeout bounds each run. Zero means no limit.
	Timeout time.Duration
	// InheritEnv passes the caller's environment to the target in addition
	// to the segment id. By default the target sees only __AFL_SHM_ID.
	InheritEnv bool
	// Env adds variables to the target's environment.
	Env map[string]string

	Stdout io.Writer
	Stderr io.Writer
	Hooks  Hooks

	Executor executor.Executor
	Logger   *zap.Logger

	// Segment operations, replaceable in tests.
	Create func(size int) (int, error)
	Attach func(id int) (*shm.Segment, error)
	Remove func(id int) error
}

// Result is the outcome of one run.
type Result struct {
	// Trace is a copy of the bitmap taken after the target exited.
	Trace    []byte
	ExitCode int
	Duration time.Duration
}

// Runner runs targets against a trace segment.
type Runner struct {
	cfg Config
	log *zap.Logger
}

// NewRunner fills in defaults and returns a Runner.
func NewRunner(cfg Config) *Runner {
	if cfg.MapSize <= 0 {
		cfg.MapSize = shm.MapSize
	}
	if cfg.Executor == nil {
		cfg.Executor = executor.Default()
	}
	if cfg.Create == nil {
		cfg.Create = shm.Create
	}
	if cfg.Attach == nil {
		cfg.Attach = shm.Attach
	}
	if cfg.Remove == nil {
		cfg.Remove = shm.Remove
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: log}
}

// Run creates a segment, runs target with its id in __AFL_SHM_ID, and
// returns the bitmap. The segment is removed before Run returns.
func (r *Runner) Run(ctx context.Context, target []string, stdin io.Reader) (res *Result, err error) {
	if len(target) == 0 {
		return nil, errors.New("no target command")
	}

	id, err := r.cfg.Create(r.cfg.MapSize)
	if err != nil {
		return nil, fmt.Errorf("create trace segment: %w", err)
	}
	log := r.log.With(zap.Int("shm_id", id))
	log.Debug("created trace segment", zap.Int("size", r.cfg.MapSize))
	defer func() {
		if rmErr := r.cfg.Remove(id); rmErr != nil {
			log.Warn("remove trace segment", zap.Error(rmErr))
			if err == nil {
				err = fmt.Errorf("remove trace segment: %w", rmErr)
				res = nil
			}
			return
		}
		log.Debug("removed trace segment")
	}()

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	if h := r.cfg.Hooks.BeforeStart; h != nil {
		h()
	}

	started := time.Now()
	proc, err := r.cfg.Executor.Start(target, r.env(id), stdin, r.cfg.Stdout, r.cfg.Stderr)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", target[0], err)
	}
	log.Debug("started target", zap.Strings("argv", target), zap.Int("pid", proc.Pid()))

	exitCode, err := wait(ctx, proc)
	duration := time.Since(started)

	if h := r.cfg.Hooks.AfterExit; h != nil {
		h()
	}
	if err != nil {
		log.Debug("target did not finish", zap.Error(err), zap.Duration("duration", duration))
		return nil, err
	}
	log.Debug("target exited", zap.Int("exit_code", exitCode), zap.Duration("duration", duration))

	bitmap, err := r.read(id)
	if err != nil {
		return nil, err
	}

	return &Result{Trace: bitmap, ExitCode: exitCode, Duration: duration}, nil
}

// read copies the bitmap out of the segment.
func (r *Runner) read(id int) ([]byte, error) {
	seg, err := r.cfg.Attach(id)
	if err != nil {
		return nil, fmt.Errorf("attach trace segment: %w", err)
	}
	defer seg.Detach()

	data := seg.Bytes()
	if len(data) > r.cfg.MapSize {
		data = data[:r.cfg.MapSize]
	}
	return append([]byte(nil), data...), nil
}

func (r *Runner) env(id int) map[string]string {
	env := make(map[string]string)
	if r.cfg.InheritEnv {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env[k] = v
			}
		}
	}
	maps.Copy(env, r.cfg.Env)
	env[shm.EnvVar] = strconv.Itoa(id)
	return env
}

// exitStatus is the outcome of Process.Wait.
type exitStatus struct {
	code int
	err  error
}

// wait waits for proc, killing it if ctx ends first.
func wait(ctx context.Context, proc executor.Process) (int, error) {
	done := make(chan exitStatus, 1)
	go func() {
		code, err := proc.Wait()
		done <- exitStatus{code, err}
	}()
	return awaitExit(ctx, proc, done)
}

// awaitExit returns the exit delivered on done. When ctx ends first the
// process is killed, unless its exit is already waiting on done.
func awaitExit(ctx context.Context, proc executor.Process, done <-chan exitStatus) (int, error) {
	var e exitStatus
	select {
	case e = <-done:
	case <-ctx.Done():
		select {
		case e = <-done:
		default:
			_ = proc.Kill()
			<-done
			return -1, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
	}
	if e.err != nil {
		return e.code, fmt.Errorf("wait for target: %w", e.err)
	}
	return e.code, nil
}
