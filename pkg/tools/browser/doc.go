// Package browser provides the shared headless browser used by toolhost's web tools.
//
// # Session
//
// A process owns one SessionManager, which owns at most one chromium engine and one
// browsing context. Both are created lazily on first use:
//
//	manager := browser.NewSessionManager(browser.DefaultConfig(), browser.NewPlaywrightDriver(true), logger)
//	defer manager.Shutdown()
//
//	bctx, err := manager.Context(ctx) // launches chromium on the first call
//
// Concurrent first callers share a single launch. A failed launch or context creation
// is reported as *SessionInitError and is not remembered, so the next call tries again.
// A caller whose ctx ends while waiting gets ctx.Err(); the launch keeps going and its
// result is kept for later callers.
//
// The engine is launched with the flags in DefaultArgs. The context uses a 1920x1080
// viewport and DefaultUserAgent.
//
// # Tools
//
// BrowseTool (browse_website) opens a page in the shared context, navigates to a URL
// and returns one of:
//
//   - content: the page's readable text with title and description
//   - screenshot: a JPEG no wider than MaxScreenshotWidth
//   - links: the page's links as a JSON array of {text, href}
//
// Every page is closed before the tool returns.
package browser
