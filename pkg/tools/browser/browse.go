package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/entrhq/toolhost/pkg/registry"
	"github.com/playwright-community/playwright-go"
)

// BrowseInput represents the parameters for browse_website.
type BrowseInput struct {
	URL       string `json:"url" jsonschema:"absolute http or https URL to open"`
	Action    string `json:"action,omitempty" jsonschema:"what to return: content (default), screenshot or links"`
	WaitUntil string `json:"wait_until,omitempty" jsonschema:"when navigation is complete: load (default), domcontentloaded or networkidle"`
	FullPage  bool   `json:"full_page,omitempty" jsonschema:"capture the full scrollable page (screenshot only)"`
	MaxLength int    `json:"max_length,omitempty" jsonschema:"maximum number of characters of page text (content only)"`
}

// BrowseTool opens a page in the shared browsing context and returns its text,
// a screenshot or its links.
type BrowseTool struct {
	manager *SessionManager
}

// NewBrowseTool creates a new browse tool.
func NewBrowseTool(manager *SessionManager) *BrowseTool {
	return &BrowseTool{
		manager: manager,
	}
}

// Name returns the tool name.
func (t *BrowseTool) Name() string {
	return "browse_website"
}

// Description returns the tool description.
func (t *BrowseTool) Description() string {
	return "Open a web page in a headless browser and return its readable text (action=content), " +
		"a JPEG screenshot (action=screenshot) or the links it contains as JSON (action=links)."
}

// Descriptor returns the registry descriptor for the tool.
func (t *BrowseTool) Descriptor() registry.Descriptor {
	return registry.NewTool(t.Name(), t.Description(), t.Execute)
}

// Execute opens input.URL in a fresh page of the shared context. The page is closed
// before returning.
func (t *BrowseTool) Execute(ctx context.Context, input BrowseInput) (*registry.Result, error) {
	action, waitUntil, err := parseBrowseInput(&input)
	if err != nil {
		return nil, err
	}

	bctx, err := t.manager.Context(ctx)
	if err != nil {
		return nil, err
	}

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = page.Close() })
	defer stop()

	gotoOpts := playwright.PageGotoOptions{
		WaitUntil: waitUntil,
	}
	if timeout := t.manager.Config().NavigationTimeout; timeout > 0 {
		gotoOpts.Timeout = playwright.Float(float64(timeout.Milliseconds()))
	}
	if _, err := page.Goto(input.URL, gotoOpts); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to navigate to %s: %w", input.URL, err)
	}

	switch action {
	case ActionScreenshot:
		return t.screenshot(page, input.FullPage)
	case ActionLinks:
		return t.links(page, input.URL)
	default:
		return t.content(page, input.URL, input.MaxLength)
	}
}

func parseBrowseInput(input *BrowseInput) (Action, *playwright.WaitUntilState, error) {
	u, err := url.Parse(input.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", nil, &registry.InvalidArgumentError{Field: "url", Reason: "must be an absolute http or https URL"}
	}

	action := Action(strings.ToLower(input.Action))
	switch action {
	case "":
		action = ActionContent
	case ActionContent, ActionScreenshot, ActionLinks:
	default:
		return "", nil, &registry.InvalidArgumentError{Field: "action", Reason: "must be one of content, screenshot, links"}
	}

	waitUntil := strings.ToLower(input.WaitUntil)
	switch waitUntil {
	case "":
		waitUntil = "load"
	case "load", "domcontentloaded", "networkidle":
	default:
		return "", nil, &registry.InvalidArgumentError{Field: "wait_until", Reason: "must be one of load, domcontentloaded, networkidle"}
	}
	state := playwright.WaitUntilState(waitUntil)

	if input.MaxLength < 0 {
		return "", nil, &registry.InvalidArgumentError{Field: "max_length", Reason: "must not be negative"}
	}
	if input.MaxLength == 0 {
		input.MaxLength = DefaultMaxLength
	}

	return action, &state, nil
}

func (t *BrowseTool) content(page playwright.Page, requested string, maxLength int) (*registry.Result, error) {
	raw, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	text, err := extractPageText(raw, maxLength)
	if err != nil {
		return nil, err
	}

	pageURL := page.URL()
	if pageURL == "" {
		pageURL = requested
	}

	var b strings.Builder
	if text.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", text.Title)
	}
	fmt.Fprintf(&b, "URL: %s\n", pageURL)
	if text.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", text.Description)
	}
	b.WriteString("\n")
	b.WriteString(text.Text)
	if text.Truncated {
		fmt.Fprintf(&b, "\n\n[content truncated to %d characters]", maxLength)
	}

	return &registry.Result{Text: b.String(), MIMEType: registry.MIMETypeText}, nil
}

func (t *BrowseTool) screenshot(page playwright.Page, fullPage bool) (*registry.Result, error) {
	data, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypeJpeg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}

	data, err = downscaleScreenshot(data, MaxScreenshotWidth)
	if err != nil {
		return nil, err
	}
	return &registry.Result{Data: data, MIMEType: registry.MIMETypeJPEG}, nil
}

func (t *BrowseTool) links(page playwright.Page, requested string) (*registry.Result, error) {
	raw, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get page content: %w", err)
	}

	pageURL := page.URL()
	if pageURL == "" {
		pageURL = requested
	}
	links, err := extractLinks(raw, pageURL)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode links: %w", err)
	}
	return &registry.Result{Text: string(data), MIMEType: registry.MIMETypeJSON}, nil
}
