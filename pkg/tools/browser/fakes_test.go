package browser

import (
	"sync"

	"github.com/playwright-community/playwright-go"
)

// fakeDriver hands out fakeBrowsers. Embedded playwright interfaces are nil, so any
// method the fakes do not override panics if called.
type fakeDriver struct {
	mu       sync.Mutex
	launches int
	stops    int
	lastOpts playwright.BrowserTypeLaunchOptions
	failNext error
	// gate blocks Launch until closed
	gate    chan struct{}
	page    *fakePage
	browser []*fakeBrowser
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{page: &fakePage{}}
}

func (d *fakeDriver) Launch(opts playwright.BrowserTypeLaunchOptions) (playwright.Browser, error) {
	if d.gate != nil {
		<-d.gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.launches++
	d.lastOpts = opts
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		return nil, err
	}

	b := &fakeBrowser{page: d.page}
	d.browser = append(d.browser, b)
	return b, nil
}

func (d *fakeDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *fakeDriver) launchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.launches
}

type fakeBrowser struct {
	playwright.Browser

	mu         sync.Mutex
	contexts   []*fakeContext
	lastOpts   playwright.BrowserNewContextOptions
	contextErr error
	closed     bool
	page       *fakePage
}

func (b *fakeBrowser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(options) > 0 {
		b.lastOpts = options[0]
	}
	if b.contextErr != nil {
		err := b.contextErr
		b.contextErr = nil
		return nil, err
	}
	c := &fakeContext{page: b.page}
	b.contexts = append(b.contexts, c)
	return c, nil
}

func (b *fakeBrowser) Close(options ...playwright.BrowserCloseOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBrowser) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type fakeContext struct {
	playwright.BrowserContext

	mu     sync.Mutex
	page   *fakePage
	pages  int
	closed bool
}

func (c *fakeContext) NewPage() (playwright.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages++
	return c.page, nil
}

func (c *fakeContext) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakePage struct {
	playwright.Page

	mu         sync.Mutex
	html       string
	finalURL   string
	screenshot []byte
	gotoErr    error
	gotoURL    string
	gotoOpts   playwright.PageGotoOptions
	shotOpts   playwright.PageScreenshotOptions
	closes     int
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotoURL = url
	if len(options) > 0 {
		p.gotoOpts = options[0]
	}
	return nil, p.gotoErr
}

func (p *fakePage) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finalURL
}

func (p *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(options) > 0 {
		p.shotOpts = options[0]
	}
	return p.screenshot, nil
}

func (p *fakePage) Close(options ...playwright.PageCloseOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

func (p *fakePage) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closes
}
