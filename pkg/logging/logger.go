package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the minimum severity a Logger writes.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name used in log entries.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel parses a case-insensitive level name. An empty string means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes leveled log lines for one component.
// All components of a process share one file in the log directory:
// <dir>/<session-id>-toolhost.log. Nothing is ever written to stdout because the
// stdio transport owns it.
type Logger struct {
	sessionID string
	component string
	level     Level
	file      *os.File
	logger    *log.Logger
	mu        *sync.Mutex
	logPath   string
	closeOnce *sync.Once
}

var (
	// Global session ID for the current process
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string
	// defaultLevel applies to loggers created after Configure
	defaultLevel = LevelInfo

	configMu sync.Mutex
	initOnce sync.Once
	initErr  error
)

// Configure sets the log directory and minimum level. It must be called before the
// first NewLogger; an empty dir keeps the default ~/.toolhost/logs.
func Configure(dir string, level Level) {
	configMu.Lock()
	defer configMu.Unlock()
	logDir = dir
	defaultLevel = level
}

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()

		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".toolhost", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

func currentLevel() Level {
	configMu.Lock()
	defer configMu.Unlock()
	return defaultLevel
}

// NewLogger creates a logger for a component.
//
// If the log directory cannot be created or the file cannot be opened, it returns a
// fallback logger writing to stderr together with the error, so callers can warn
// and keep going.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-toolhost.log", sessID))

	// Append mode: every component of the process writes to the same file
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, err), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		level:     currentLevel(),
		file:      file,
		logger:    log.New(file, "", 0),
		mu:        &sync.Mutex{},
		logPath:   logPath,
		closeOnce: &sync.Once{},
	}, nil
}

func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, "", 0)
	l := &Logger{
		sessionID: getSessionID(),
		component: component,
		level:     currentLevel(),
		logger:    logger,
		mu:        &sync.Mutex{},
		closeOnce: &sync.Once{},
	}
	l.Warnf("failed to initialize file logging, falling back to stderr: %v", err)
	return l
}

// NewWriterLogger creates a logger that writes to w. Closing it does not close w.
func NewWriterLogger(component string, w io.Writer, level Level) *Logger {
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		level:     level,
		logger:    log.New(w, "", 0),
		mu:        &sync.Mutex{},
		closeOnce: &sync.Once{},
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriterLogger("discard", io.Discard, LevelError+1)
}

// With returns a logger for another component sharing this logger's output.
func (l *Logger) With(component string) *Logger {
	child := *l
	child.component = component
	return &child
}

func (l *Logger) write(level Level, format string, v ...any) {
	if l == nil || level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, v...)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...any) { l.write(LevelDebug, format, v...) }

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...any) { l.write(LevelInfo, format, v...) }

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...any) { l.write(LevelWarn, format, v...) }

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...any) { l.write(LevelError, format, v...) }

// Writer returns the underlying destination.
func (l *Logger) Writer() io.Writer {
	if l.file != nil {
		return l.file
	}
	return l.logger.Writer()
}

// SessionID returns the process session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, empty for non-file loggers
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times and on child loggers.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}
