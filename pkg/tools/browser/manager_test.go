package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/entrhq/toolhost/pkg/logging"
	"github.com/entrhq/toolhost/pkg/registry"
	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(driver *fakeDriver) *SessionManager {
	return NewSessionManager(DefaultConfig(), driver, logging.Discard())
}

func TestEngine_ConcurrentFirstCallsLaunchOnce(t *testing.T) {
	driver := newFakeDriver()
	driver.gate = make(chan struct{})
	m := newTestManager(driver)

	const callers = 16
	results := make([]playwright.Browser, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Engine(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return m.State() == StateInitializing }, time.Second, time.Millisecond)
	close(driver.gate)
	wg.Wait()

	assert.Equal(t, 1, driver.launchCount())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, StateReady, m.State())
}

func TestEngine_LaunchOptions(t *testing.T) {
	driver := newFakeDriver()
	m := newTestManager(driver)

	_, err := m.Engine(context.Background())
	require.NoError(t, err)

	require.NotNil(t, driver.lastOpts.Headless)
	assert.True(t, *driver.lastOpts.Headless)
	assert.Equal(t, []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
		"--disable-web-security",
		"--disable-features=VizDisplayCompositor",
	}, driver.lastOpts.Args)
}

func TestEngine_FailureIsNotMemoized(t *testing.T) {
	driver := newFakeDriver()
	boom := errors.New("chromium missing")
	driver.failNext = boom
	m := newTestManager(driver)

	_, err := m.Engine(context.Background())
	require.Error(t, err)

	var initErr *SessionInitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, StageLaunch, initErr.Stage)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, CodeSessionInitFailed, registry.CodeOf(err))
	assert.Equal(t, StateUninitialized, m.State())

	browser, err := m.Engine(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, browser)
	assert.Equal(t, 2, driver.launchCount())
	assert.Equal(t, StateReady, m.State())
}

func TestContext_IdentityAndOptions(t *testing.T) {
	driver := newFakeDriver()
	m := newTestManager(driver)
	ctx := context.Background()

	first, err := m.Context(ctx)
	require.NoError(t, err)
	second, err := m.Context(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.Len(t, driver.browser, 1)
	b := driver.browser[0]
	assert.Len(t, b.contexts, 1)
	require.NotNil(t, b.lastOpts.Viewport)
	assert.Equal(t, 1920, b.lastOpts.Viewport.Width)
	assert.Equal(t, 1080, b.lastOpts.Viewport.Height)
	require.NotNil(t, b.lastOpts.UserAgent)
	assert.Equal(t, DefaultUserAgent, *b.lastOpts.UserAgent)

	engine, err := m.Engine(ctx)
	require.NoError(t, err)
	assert.Same(t, b, engine)
}

func TestContext_ConcurrentFirstCalls(t *testing.T) {
	driver := newFakeDriver()
	m := newTestManager(driver)

	const callers = 8
	results := make([]playwright.BrowserContext, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.Context(context.Background())
			assert.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, driver.launchCount())
	require.Len(t, driver.browser, 1)
	assert.Len(t, driver.browser[0].contexts, 1)
	for i := 1; i < callers; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestContext_FailureIsNotMemoized(t *testing.T) {
	driver := newFakeDriver()
	m := newTestManager(driver)
	ctx := context.Background()

	engine, err := m.Engine(ctx)
	require.NoError(t, err)
	engine.(*fakeBrowser).contextErr = errors.New("context refused")

	_, err = m.Context(ctx)
	var initErr *SessionInitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, StageContext, initErr.Stage)

	bctx, err := m.Context(ctx)
	require.NoError(t, err)
	assert.NotNil(t, bctx)
	assert.Equal(t, 1, driver.launchCount())
}

func TestEngine_CanceledWaiterLaunchStillMemoized(t *testing.T) {
	driver := newFakeDriver()
	driver.gate = make(chan struct{})
	m := newTestManager(driver)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Engine(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return m.State() == StateInitializing }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Engine did not return after cancellation")
	}

	close(driver.gate)
	browser, err := m.Engine(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, browser)
	assert.Equal(t, 1, driver.launchCount())
}

func TestShutdown(t *testing.T) {
	driver := newFakeDriver()
	m := newTestManager(driver)
	ctx := context.Background()

	bctx, err := m.Context(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Shutdown())
	assert.Equal(t, StateUninitialized, m.State())
	assert.True(t, bctx.(*fakeContext).closed)
	assert.True(t, driver.browser[0].isClosed())
	assert.Equal(t, 1, driver.stops)

	_, err = m.Engine(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, driver.launchCount())
}

func TestShutdown_DuringLaunchDiscardsBrowser(t *testing.T) {
	driver := newFakeDriver()
	driver.gate = make(chan struct{})
	m := newTestManager(driver)

	done := make(chan error, 1)
	go func() {
		_, err := m.Engine(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return m.State() == StateInitializing }, time.Second, time.Millisecond)
	require.NoError(t, m.Shutdown())
	close(driver.gate)

	err := <-done
	assert.ErrorIs(t, err, ErrShutdown)
	require.Len(t, driver.browser, 1)
	assert.True(t, driver.browser[0].isClosed())
	assert.Equal(t, StateUninitialized, m.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "ready", StateReady.String())
}
