package browser

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// PageText is the readable content of a page.
type PageText struct {
	Title       string
	Description string
	Text        string
	Truncated   bool
}

// extractPageText parses rawHTML and returns its visible text, one block per line.
// Scripts, styles and other noise are dropped. Text longer than maxLength runes is
// cut and marked truncated; maxLength <= 0 means no limit.
func extractPageText(rawHTML string, maxLength int) (*PageText, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &PageText{
		Title:       extractTitle(doc),
		Description: extractMetaDescription(doc),
	}

	w := &textWriter{}
	w.walk(doc)
	text := normalizeLines(w.b.String())

	if maxLength > 0 {
		if runes := []rune(text); len(runes) > maxLength {
			text = string(runes[:maxLength]) + "..."
			result.Truncated = true
		}
	}
	result.Text = text
	return result, nil
}

type textWriter struct {
	b    strings.Builder
	last byte
}

func (w *textWriter) write(s string) {
	if s == "" {
		return
	}
	w.b.WriteString(s)
	w.last = s[len(s)-1]
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		words := strings.Fields(n.Data)
		if len(words) == 0 {
			return
		}
		if w.last != 0 && w.last != ' ' && w.last != '\n' {
			w.write(" ")
		}
		w.write(strings.Join(words, " "))
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if tag == "head" || isSkippedElement(tag) {
			return
		}
		if tag == "br" {
			w.write("\n")
			return
		}
		block := isBlockElement(tag)
		if block {
			w.write("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
		if block {
			w.write("\n")
		}
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

// normalizeLines trims every line and drops empty ones.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// extractLinks returns the distinct links of a page in document order, with relative
// hrefs resolved against pageURL.
func extractLinks(rawHTML, pageURL string) ([]Link, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, _ := url.Parse(pageURL)
	seen := make(map[string]bool)
	links := []Link{}

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := resolveHref(base, attr(n, "href")); href != "" && !seen[href] {
				seen[href] = true
				links = append(links, Link{
					Text: strings.Join(strings.Fields(textContent(n)), " "),
					Href: href,
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return links, nil
}

func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
		b.WriteString(" ")
	}
	return b.String()
}

// isSkippedElement returns true for elements that never contribute text
func isSkippedElement(tagName string) bool {
	skipped := map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"iframe":   true,
		"embed":    true,
		"object":   true,
		"svg":      true,
		"template": true,
	}
	return skipped[tagName]
}

// isBlockElement returns true for block-level elements (each starts a new line)
func isBlockElement(tagName string) bool {
	blocks := map[string]bool{
		"div":        true,
		"p":          true,
		"section":    true,
		"article":    true,
		"header":     true,
		"footer":     true,
		"nav":        true,
		"main":       true,
		"aside":      true,
		"h1":         true,
		"h2":         true,
		"h3":         true,
		"h4":         true,
		"h5":         true,
		"h6":         true,
		"ul":         true,
		"ol":         true,
		"li":         true,
		"table":      true,
		"tr":         true,
		"td":         true,
		"th":         true,
		"form":       true,
		"fieldset":   true,
		"blockquote": true,
		"pre":        true,
		"hr":         true,
	}
	return blocks[tagName]
}

// extractTitle extracts the page title from the document
func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

// extractMetaDescription extracts the meta description from the document
func extractMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			if attr(n, "name") == "description" {
				if content := strings.TrimSpace(attr(n, "content")); content != "" {
					description = content
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if description != "" {
				return
			}
		}
	}
	traverse(doc)
	return description
}
