// Package process runs the external tools used to burn and eject media.
//
// Every call blocks until the child exits and reports its exit status plus
// the captured output split into lines. Launch failures (binary missing,
// permission denied) are returned as errors; a non-zero exit is not an error
// at this layer and is left for the caller to interpret.
package process

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"k8s.io/utils/exec"

	"github.com/thoreinstein/cback/internal/logging"
)

// Command describes one invocation of an external tool.
type Command struct {
	// Name is the logical tool name, e.g. "cdrecord". It is resolved through
	// the configured overrides before falling back to PATH lookup.
	Name string
	Args []string
	// IgnoreStderr discards stderr instead of interleaving it with stdout.
	IgnoreStderr bool
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	ExitCode int
	Output   []string
}

// Success reports whether the command exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Executor is the Runner backed by real processes.
type Executor struct {
	exec      exec.Interface
	overrides map[string]string
	logger    *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithExec replaces the process backend, typically with a fake in tests.
func WithExec(e exec.Interface) Option {
	return func(x *Executor) {
		x.exec = e
	}
}

// WithOverrides maps logical tool names to explicit binary paths.
func WithOverrides(overrides map[string]string) Option {
	return func(x *Executor) {
		for k, v := range overrides {
			if v != "" {
				x.overrides[k] = v
			}
		}
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(l *slog.Logger) Option {
	return func(x *Executor) {
		if l != nil {
			x.logger = l
		}
	}
}

// NewExecutor creates an Executor that runs real processes unless
// configured otherwise.
func NewExecutor(opts ...Option) *Executor {
	x := &Executor{
		exec:      exec.New(),
		overrides: make(map[string]string),
		logger:    logging.NewDiscard(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Resolve returns the binary that will be executed for the named tool.
func (x *Executor) Resolve(name string) (string, error) {
	if path, ok := x.overrides[name]; ok {
		return path, nil
	}
	path, err := x.exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(err, "locating %s", name)
	}
	return path, nil
}

// Run executes cmd and waits for it to exit.
//
// Cancellation of ctx is not propagated to the child: once dispatched, a
// command always runs to completion.
func (x *Executor) Run(ctx context.Context, cmd Command) (Result, error) {
	bin, err := x.Resolve(cmd.Name)
	if err != nil {
		return Result{}, err
	}

	x.logger.Debug("executing command", "command", cmd.String(), "binary", bin)

	c := x.exec.CommandContext(context.WithoutCancel(ctx), bin, cmd.Args...)
	var out []byte
	if cmd.IgnoreStderr {
		out, err = c.Output()
	} else {
		out, err = c.CombinedOutput()
	}

	result := Result{Output: SplitLines(out)}
	if err != nil {
		var exitErr exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, errors.Wrapf(err, "running %s", cmd.Name)
		}
		result.ExitCode = exitErr.ExitStatus()
	}

	x.logger.Debug("command finished", "command", cmd.Name, "exit_code", result.ExitCode, "lines", len(result.Output))
	for _, line := range result.Output {
		x.logger.Log(ctx, logging.LevelTrace, "output", "command", cmd.Name, "line", line)
	}
	return result, nil
}

// SplitLines splits captured output into lines without trailing newlines or
// carriage returns. Blank lines are dropped.
func SplitLines(out []byte) []string {
	var lines []string
	for _, raw := range bytes.Split(out, []byte("\n")) {
		line := strings.TrimRight(string(raw), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
