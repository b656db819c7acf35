package shell

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/entrhq/toolhost/pkg/registry"
)

// ExecuteCommandInput represents the parameters for execute_command.
type ExecuteCommandInput struct {
	Command        string  `json:"command" jsonschema:"the shell command to execute"`
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty" jsonschema:"overrides the configured timeout for this call, in seconds"`
}

// maxTimeoutSeconds is the largest timeout_seconds that fits in a time.Duration.
const maxTimeoutSeconds = float64(math.MaxInt64) / float64(time.Second)

// ExecuteCommandTool runs a shell command and returns its standard output.
type ExecuteCommandTool struct {
	runner *Runner
}

// NewExecuteCommandTool creates a new command execution tool
func NewExecuteCommandTool(runner *Runner) *ExecuteCommandTool {
	return &ExecuteCommandTool{runner: runner}
}

// Name returns the tool name
func (t *ExecuteCommandTool) Name() string {
	return "execute_command"
}

// Description returns the tool description
func (t *ExecuteCommandTool) Description() string {
	return "Execute a shell command and return its output. Fails with the command's standard error if it exits nonzero."
}

// Descriptor returns the registry descriptor for the tool.
func (t *ExecuteCommandTool) Descriptor() registry.Descriptor {
	return registry.NewTool(t.Name(), t.Description(), t.Execute)
}

// Execute runs the command and returns its trimmed stdout.
func (t *ExecuteCommandTool) Execute(ctx context.Context, input ExecuteCommandInput) (string, error) {
	if strings.TrimSpace(input.Command) == "" {
		return "", &registry.InvalidArgumentError{Field: "command", Reason: "cannot be empty"}
	}
	if input.TimeoutSeconds < 0 {
		return "", &registry.InvalidArgumentError{Field: "timeout_seconds", Reason: "must not be negative"}
	}

	var (
		result *Result
		err    error
	)
	if input.TimeoutSeconds > 0 {
		if input.TimeoutSeconds >= maxTimeoutSeconds {
			return "", &registry.InvalidArgumentError{Field: "timeout_seconds", Reason: "is too large"}
		}
		// A zero duration would disable the timeout altogether
		timeout := time.Duration(input.TimeoutSeconds * float64(time.Second))
		if timeout <= 0 {
			return "", &registry.InvalidArgumentError{Field: "timeout_seconds", Reason: "is below one nanosecond"}
		}
		result, err = t.runner.RunWithTimeout(ctx, input.Command, timeout)
	} else {
		result, err = t.runner.Run(ctx, input.Command)
	}
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}
