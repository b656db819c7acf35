package browser

import (
	"errors"
	"fmt"
)

// CodeSessionInitFailed is reported when the engine or context cannot be created.
const CodeSessionInitFailed = "session_init_failed"

// Initialization stages reported by SessionInitError.
const (
	StageLaunch  = "launch"
	StageContext = "context"
)

// ErrShutdown is returned to callers whose initialization raced with Shutdown.
var ErrShutdown = errors.New("browser session manager was shut down")

// SessionInitError means the shared browser or its context could not be created.
// Nothing is memoized when it is returned, so the next call retries.
type SessionInitError struct {
	Stage string
	Err   error
}

func (e *SessionInitError) Error() string {
	return fmt.Sprintf("browser %s failed: %v", e.Stage, e.Err)
}

func (e *SessionInitError) Unwrap() error { return e.Err }

// ErrorCode returns the stable code for this error.
func (e *SessionInitError) ErrorCode() string { return CodeSessionInitFailed }
