package browser

import (
	"fmt"
	"time"
)

// Default browser configuration values
const (
	DefaultViewportWidth     = 1920
	DefaultViewportHeight    = 1080
	DefaultNavigationTimeout = 30 * time.Second
	DefaultMaxLength         = 20000
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MaxScreenshotWidth is the widest screenshot returned to clients
	MaxScreenshotWidth = 1024
)

// DefaultArgs are the chromium flags every engine is launched with.
var DefaultArgs = []string{
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-web-security",
	"--disable-features=VizDisplayCompositor",
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Config configures the shared browser session.
type Config struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// InstallDriver downloads the playwright driver and chromium before the first launch
	InstallDriver bool

	// Args are passed to chromium on launch
	Args []string

	// Viewport of the shared browsing context
	Viewport Viewport

	// UserAgent reported by the shared browsing context
	UserAgent string

	// NavigationTimeout bounds each page navigation
	NavigationTimeout time.Duration
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	args := make([]string, len(DefaultArgs))
	copy(args, DefaultArgs)
	return Config{
		Headless:      true,
		InstallDriver: true,
		Args:          args,
		Viewport: Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
		UserAgent:         DefaultUserAgent,
		NavigationTimeout: DefaultNavigationTimeout,
	}
}

// State is the lifecycle state of the browser engine.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Action selects what browse_website returns.
type Action string

const (
	// ActionContent returns the readable text of the page (default)
	ActionContent Action = "content"

	// ActionScreenshot returns a JPEG screenshot
	ActionScreenshot Action = "screenshot"

	// ActionLinks returns the links found on the page as JSON
	ActionLinks Action = "links"
)

// Link is a hyperlink found on a page.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}
