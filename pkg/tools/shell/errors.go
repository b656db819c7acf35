package shell

import (
	"fmt"
	"time"
)

// Stable error codes for command failures.
const (
	CodeCommandFailed = "command_failed"
	CodeCommandDenied = "command_denied"
)

// CommandExecutionError means a command exited nonzero, timed out or could not start.
type CommandExecutionError struct {
	Command  string
	ExitCode int

	// Stderr is the captured standard error, trimmed
	Stderr string

	TimedOut bool
	Timeout  time.Duration

	// Err is set when the shell could not be started
	Err error
}

func (e *CommandExecutionError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("command timed out after %s", e.Timeout)
	case e.Err != nil:
		return fmt.Sprintf("command could not be started: %v", e.Err)
	case e.Stderr != "":
		return fmt.Sprintf("command failed with error: %s", e.Stderr)
	default:
		return fmt.Sprintf("command failed with exit code %d", e.ExitCode)
	}
}

func (e *CommandExecutionError) Unwrap() error { return e.Err }

// ErrorCode returns the stable code for this error.
func (e *CommandExecutionError) ErrorCode() string { return CodeCommandFailed }

// CommandDeniedError means a command matched a deny pattern and was not run.
type CommandDeniedError struct {
	Command string
	Pattern string
}

func (e *CommandDeniedError) Error() string {
	return fmt.Sprintf("command denied by pattern %q", e.Pattern)
}

// ErrorCode returns the stable code for this error.
func (e *CommandDeniedError) ErrorCode() string { return CodeCommandDenied }
