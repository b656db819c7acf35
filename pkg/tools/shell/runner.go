// Package shell runs commands through the host shell for the execute_command tool.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/entrhq/toolhost/pkg/logging"
	"github.com/gobwas/glob"
)

// Default executor settings
const (
	DefaultShell   = "sh"
	DefaultTimeout = 60 * time.Second

	// waitDelay bounds how long Run waits for output pipes after the process is killed
	waitDelay = 2 * time.Second
)

// Config configures the Runner.
type Config struct {
	// Shell is invoked as `<Shell> -c <command>`
	Shell string

	// Timeout bounds every command. Zero means no timeout.
	Timeout time.Duration

	// WorkingDir is the directory commands run in; empty inherits the process's
	WorkingDir string

	// Env holds extra KEY=VALUE entries appended to the process environment
	Env []string

	// Deny holds glob patterns; a command matching any of them is never run
	Deny []string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Shell:   DefaultShell,
		Timeout: DefaultTimeout,
	}
}

// Result is the outcome of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

type denyRule struct {
	pattern string
	glob    glob.Glob
}

// Runner executes shell commands. Each call owns its subprocess, so a Runner is safe
// for concurrent use.
type Runner struct {
	cfg    Config
	deny   []denyRule
	logger *logging.Logger
}

// NewRunner creates a runner, compiling the deny patterns.
func NewRunner(cfg Config, logger *logging.Logger) (*Runner, error) {
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("command timeout cannot be negative: %s", cfg.Timeout)
	}

	r := &Runner{cfg: cfg, logger: logger}
	for _, pattern := range cfg.Deny {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern '%s': %w", pattern, err)
		}
		r.deny = append(r.deny, denyRule{pattern: pattern, glob: g})
	}
	return r, nil
}

// Run executes command with the configured timeout.
func (r *Runner) Run(ctx context.Context, command string) (*Result, error) {
	return r.RunWithTimeout(ctx, command, r.cfg.Timeout)
}

// RunWithTimeout executes command through the shell and waits for it to finish.
// Stdout and Stderr in the result are trimmed. A nonzero exit or an expired timeout
// returns *CommandExecutionError together with the result. Zero timeout means none.
func (r *Runner) RunWithTimeout(ctx context.Context, command string, timeout time.Duration) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, errors.New("command cannot be empty")
	}
	if rule, denied := r.denied(command); denied {
		r.logger.Warnf("denied command %q (pattern %q)", command, rule)
		return nil, &CommandDeniedError{Command: command, Pattern: rule}
	}

	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, r.cfg.Shell, "-c", command)
	cmd.Dir = r.cfg.WorkingDir
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), r.cfg.Env...)
	}
	// Reap the process even if a grandchild keeps the output pipes open
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debugf("running command %q", command)
	start := time.Now()
	runErr := cmd.Run()

	result := &Result{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}

	if runErr == nil {
		r.logger.Debugf("command %q completed in %s", command, result.Duration)
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = -1
	}

	// The caller's context ending is a cancellation, not a command failure
	if ctx.Err() != nil {
		return result, fmt.Errorf("command canceled: %w", ctx.Err())
	}

	execErr := &CommandExecutionError{
		Command:  command,
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
	}
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		execErr.TimedOut = true
		execErr.Timeout = timeout
	} else if exitErr == nil {
		execErr.Err = runErr
	}

	r.logger.Warnf("command %q failed: %v", command, execErr)
	return result, execErr
}

func (r *Runner) denied(command string) (string, bool) {
	command = strings.TrimSpace(command)
	for _, rule := range r.deny {
		if rule.glob.Match(command) {
			return rule.pattern, true
		}
	}
	return "", false
}
