// afl-showmap - display the trace bitmap a target leaves in shared memory
//
// Usage:
//
//	afl-showmap [flags] -o <file> -- /path/to/target [args...]
//	afl-showmap --self-test -- /path/to/target [args...]
//
// The target runs with __AFL_SHM_ID naming a fresh SysV segment. After it
// exits, every non-zero byte of the segment is written to the output file
// as "index:count".
//
// Exit status:
//
//	0  tuples were captured (or the self-test passed)
//	1  no tuples were captured, the target could not be run, or the
//	   self-test failed
//	2  usage error
//
// Unlike afl-showmap.py, a run that captures no tuples exits 1, not 0.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mbrock/shmprobe/internal/config"
	"github.com/mbrock/shmprobe/internal/logging"
	"github.com/mbrock/shmprobe/internal/showmap"
	"github.com/mbrock/shmprobe/internal/trace"
)

const author = "<d33tah@gmail.com>"

// options holds the parsed command line.
type options struct {
	output     string
	timeout    string
	inheritEnv bool
	selfTest   bool
	noColor    bool
	debug      bool
}

// app carries one invocation's options and stdio.
type app struct {
	opts   options
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	fs := flag.NewFlagSet("afl-showmap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&a.opts.output, "output", "o", "", "File to write the trace data to (required)")
	fs.StringVarP(&a.opts.timeout, "timeout", "t", "", "Kill the target after this long, e.g. 500ms (overrides AFL_TIMEOUT)")
	fs.BoolVar(&a.opts.inheritEnv, "inherit-env", false, "Pass the caller's environment to the target")
	fs.BoolVar(&a.opts.selfTest, "self-test", false, "Run the target with file and piped stdin and compare traces")
	fs.BoolVar(&a.opts.noColor, "no-color", false, "Never use ANSI colors")
	fs.BoolVar(&a.opts.debug, "debug", false, "Debug logging (same as AFL_DEBUG=1)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `
Usage: afl-showmap [flags] -o file -- /path/to/target_app [ ... ]

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, `
This tool displays raw tuple data captured by AFL instrumentation.
Environment: AFL_MAP_SIZE, AFL_TIMEOUT, AFL_DEBUG.
`)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return a.usage(fs, err.Error())
	}

	target := fs.Args()
	if len(target) == 0 {
		return a.usage(fs, "no target command given")
	}
	if a.opts.output == "" && !a.opts.selfTest {
		return a.usage(fs, "-o is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return a.fail(err)
	}
	if a.opts.timeout != "" {
		d, err := parseTimeout(a.opts.timeout)
		if err != nil {
			return a.usage(fs, err.Error())
		}
		cfg.Timeout = d
	}
	if a.opts.debug {
		cfg.Debug = true
	}

	log := logging.NewOrNop(cfg.Debug)
	defer log.Sync()

	rep := showmap.NewReporter(stderr)
	if a.opts.noColor {
		rep = showmap.NewPlainReporter(stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.opts.selfTest {
		return a.cmdSelfTest(ctx, cfg, log, rep, target)
	}
	return a.cmdShowmap(ctx, cfg, log, rep, target)
}

// cmdShowmap runs the target once and writes its tuples to the output file.
func (a *app) cmdShowmap(ctx context.Context, cfg *config.Config, log *zap.Logger, rep *showmap.Reporter, target []string) int {
	rep.Banner(author)

	r := a.newRunner(cfg, log, trace.Hooks{
		BeforeStart: rep.OutputBegins,
		AfterExit:   rep.OutputEnds,
	})
	res, err := r.Run(ctx, target, a.stdin)
	if err != nil {
		return a.fail(err)
	}
	log.Debug("trace captured", zap.Int("exit_code", res.ExitCode), zap.Duration("duration", res.Duration))

	n, err := showmap.WriteFile(a.opts.output, res.Trace)
	if err != nil {
		return a.fail(err)
	}
	if err := rep.Captured(n, a.opts.output); err != nil {
		return 1
	}
	return 0
}

// cmdSelfTest checks that the target yields the same trace with stdin
// inherited and with piped input.
func (a *app) cmdSelfTest(ctx context.Context, cfg *config.Config, log *zap.Logger, rep *showmap.Reporter, target []string) int {
	r := a.newRunner(cfg, log, trace.Hooks{})

	rep.Note("Testing if stdin and piped input are both supported...")
	err := trace.SelfTest(ctx, r, target, a.stdin)
	if errors.Is(err, trace.ErrTraceMismatch) {
		fmt.Fprintln(a.stdout, "Test results don't match.")
		return 1
	}
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.stdout, "Testing successful.")
	return 0
}

func (a *app) newRunner(cfg *config.Config, log *zap.Logger, hooks trace.Hooks) *trace.Runner {
	return trace.NewRunner(trace.Config{
		MapSize:    cfg.MapSize,
		Timeout:    cfg.Timeout,
		InheritEnv: a.opts.inheritEnv,
		Stdout:     a.stdout,
		Stderr:     a.stderr,
		Hooks:      hooks,
		Logger:     log,
	})
}

func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "error: %v\n", err)
	return 1
}

func (a *app) usage(fs *flag.FlagSet, msg string) int {
	fmt.Fprintf(a.stderr, "error: %s\n", msg)
	fs.Usage()
	return 2
}
