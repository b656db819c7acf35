package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/entrhq/toolhost/pkg/logging"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/singleflight"
)

// SessionManager owns the single browser engine and browsing context shared by every
// browser operation in the process. Both are created on first use and reused until
// Shutdown.
type SessionManager struct {
	cfg    Config
	driver Driver
	logger *logging.Logger

	group singleflight.Group

	mu      sync.RWMutex
	browser playwright.Browser
	context playwright.BrowserContext
	state   State
	// gen is bumped by Shutdown; initializations started under an older
	// generation discard their result instead of memoizing it
	gen uint64
}

// NewSessionManager creates a manager. Nothing is launched until Engine or Context
// is called.
func NewSessionManager(cfg Config, driver Driver, logger *logging.Logger) *SessionManager {
	return &SessionManager{
		cfg:    cfg,
		driver: driver,
		logger: logger,
	}
}

// Config returns the configuration the manager was created with.
func (m *SessionManager) Config() Config {
	return m.cfg
}

// State reports the engine lifecycle state.
func (m *SessionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Engine returns the shared browser, launching it on first use. Concurrent first
// callers share one launch. If ctx ends while waiting, Engine returns ctx.Err() and
// the launch still completes in the background and is memoized.
func (m *SessionManager) Engine(ctx context.Context) (playwright.Browser, error) {
	m.mu.RLock()
	browser := m.browser
	m.mu.RUnlock()
	if browser != nil {
		return browser, nil
	}

	v, err := m.do(ctx, "engine", m.launch)
	if err != nil {
		return nil, err
	}
	return v.(playwright.Browser), nil
}

// Context returns the shared browsing context, creating the engine and context on
// first use. It has the same sharing and cancellation behavior as Engine.
func (m *SessionManager) Context(ctx context.Context) (playwright.BrowserContext, error) {
	m.mu.RLock()
	bctx := m.context
	m.mu.RUnlock()
	if bctx != nil {
		return bctx, nil
	}

	v, err := m.do(ctx, "context", func() (any, error) {
		return m.newContext(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(playwright.BrowserContext), nil
}

func (m *SessionManager) do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	ch := m.group.DoChan(key, fn)
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *SessionManager) launch() (any, error) {
	m.mu.Lock()
	if m.browser != nil {
		browser := m.browser
		m.mu.Unlock()
		return browser, nil
	}
	gen := m.gen
	m.state = StateInitializing
	m.mu.Unlock()

	m.logger.Infof("launching chromium (headless=%t)", m.cfg.Headless)

	headless := m.cfg.Headless
	browser, err := m.driver.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
		Args:     m.cfg.Args,
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.state = StateUninitialized
		m.logger.Errorf("chromium launch failed: %v", err)
		return nil, &SessionInitError{Stage: StageLaunch, Err: err}
	}
	if gen != m.gen {
		_ = browser.Close()
		return nil, &SessionInitError{Stage: StageLaunch, Err: ErrShutdown}
	}

	m.browser = browser
	m.state = StateReady
	m.logger.Infof("chromium ready")
	return browser, nil
}

func (m *SessionManager) newContext(ctx context.Context) (playwright.BrowserContext, error) {
	m.mu.RLock()
	if m.context != nil {
		bctx := m.context
		m.mu.RUnlock()
		return bctx, nil
	}
	gen := m.gen
	m.mu.RUnlock()

	browser, err := m.Engine(ctx)
	if err != nil {
		return nil, err
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.cfg.Viewport.Width,
			Height: m.cfg.Viewport.Height,
		},
		UserAgent: playwright.String(m.cfg.UserAgent),
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.logger.Errorf("browser context creation failed: %v", err)
		return nil, &SessionInitError{Stage: StageContext, Err: err}
	}
	if gen != m.gen {
		_ = bctx.Close()
		return nil, &SessionInitError{Stage: StageContext, Err: ErrShutdown}
	}

	m.context = bctx
	return bctx, nil
}

// Shutdown closes the context and the browser and stops the driver. The manager
// returns to StateUninitialized; a later call to Engine launches a new browser.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gen++

	var errs []error
	if m.context != nil {
		if err := m.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
		m.context = nil
	}
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		m.browser = nil
	}
	if err := m.driver.Stop(); err != nil {
		errs = append(errs, err)
	}
	m.state = StateUninitialized

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	m.logger.Infof("browser session shut down")
	return nil
}
