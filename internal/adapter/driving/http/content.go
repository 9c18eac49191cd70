package httphandler

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
	textSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
	textSanitizer = bluemonday.StrictPolicy()
}

// sanitizeHTML strips scripts, event handlers and unsafe URLs from rich
// content while keeping ordinary formatting tags.
func sanitizeHTML(src string) string {
	if src == "" {
		return ""
	}
	return strings.TrimSpace(htmlSanitizer.Sanitize(src))
}

// sanitizeText removes every tag from a plain text field.
func sanitizeText(src string) string {
	if src == "" {
		return ""
	}
	return strings.TrimSpace(textSanitizer.Sanitize(src))
}

// renderMarkdown converts markdown to sanitized HTML. Raw HTML inside the
// markdown survives rendering and is then sanitized like any other content.
func renderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return sanitizeHTML(src)
	}

	return sanitizeHTML(buf.String())
}

// contentFormatMarkdown is the content_format value that selects markdown
// rendering for a request's content field.
const contentFormatMarkdown = "markdown"

// prepareContent renders and sanitizes a content field according to format.
func prepareContent(content, format string) string {
	if format == contentFormatMarkdown {
		return renderMarkdown(content)
	}
	return sanitizeHTML(content)
}
