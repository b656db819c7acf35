package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Driver launches browser engines. PlaywrightDriver is the production implementation;
// tests substitute fakes.
type Driver interface {
	Launch(opts playwright.BrowserTypeLaunchOptions) (playwright.Browser, error)
	Stop() error
}

// PlaywrightDriver starts the playwright driver on first launch and launches chromium.
type PlaywrightDriver struct {
	install bool

	mu sync.Mutex
	pw *playwright.Playwright
}

// NewPlaywrightDriver creates a driver. When install is true the playwright driver
// and chromium are downloaded before the first launch if missing.
func NewPlaywrightDriver(install bool) *PlaywrightDriver {
	return &PlaywrightDriver{install: install}
}

// Launch starts playwright if needed and launches chromium. If chromium fails to
// launch, playwright is stopped again so the next attempt starts clean.
func (d *PlaywrightDriver) Launch(opts playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pw == nil {
		// Discard driver output: stdout belongs to the stdio transport
		runOpts := &playwright.RunOptions{
			Browsers: []string{"chromium"},
			Verbose:  false,
			Stdout:   io.Discard,
			Stderr:   io.Discard,
		}

		if d.install {
			if err := playwright.Install(runOpts); err != nil {
				return nil, fmt.Errorf("failed to install playwright: %w", err)
			}
		}

		pw, err := playwright.Run(runOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to start playwright: %w", err)
		}
		d.pw = pw
	}

	browser, err := d.pw.Chromium.Launch(opts)
	if err != nil {
		_ = d.pw.Stop()
		d.pw = nil
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}
	return browser, nil
}

// Stop stops the playwright driver. It is a no-op if it was never started.
func (d *PlaywrightDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}
