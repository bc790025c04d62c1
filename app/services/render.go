package services

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// contentPolicy is the allow-list applied to rendered post HTML. It is
// the application's XSS defense for user-authored content: anything
// capable of executing script is stripped.
var contentPolicy = buildContentPolicy()

// textPolicy strips all markup, for plain-text fields like titles.
var textPolicy = bluemonday.StrictPolicy()

func buildContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "em", "b", "i", "u", "s",
		"ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "code", "pre", "hr",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title").OnElements("img")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	return p
}

// RenderContentHTML converts Markdown to sanitized HTML. The output is
// safe to embed verbatim in a page; it must be recomputed whenever the
// source content changes, before the post is persisted.
func RenderContentHTML(content string) string {
	// Parsers hold state across Parse calls, so build one per render.
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	raw := markdown.ToHTML([]byte(content), p, renderer)
	return strings.TrimSpace(contentPolicy.Sanitize(string(raw)))
}

// SanitizeText reduces a string to plain text with markup removed.
func SanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
