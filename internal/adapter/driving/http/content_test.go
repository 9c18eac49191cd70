package httphandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "script removed", in: "<script>alert('xss')</script><p>Hello</p>", want: "<p>Hello</p>"},
		{name: "formatting kept", in: "<p>Hello <strong>World</strong> <em>!</em></p>", want: "<p>Hello <strong>World</strong> <em>!</em></p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeHTML(tt.in))
		})
	}
}

func TestSanitizeHTML_EventHandler(t *testing.T) {
	got := sanitizeHTML(`<img src="https://example.com/x.png" onerror="alert(1)">`)

	assert.Contains(t, got, `src="https://example.com/x.png"`)
	assert.NotContains(t, got, "onerror")
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "admin", sanitizeText("admin"))
	assert.Equal(t, "Test Event", sanitizeText("<script>alert('xss')</script>Test Event"))
	assert.Equal(t, "bold", sanitizeText("<b>bold</b>"))
}

func TestRenderMarkdown(t *testing.T) {
	got := renderMarkdown("# Title\n\nSome **bold** text.\n\n<script>alert(1)</script>")

	assert.Contains(t, got, "<h1>Title</h1>")
	assert.Contains(t, got, "<strong>bold</strong>")
	assert.NotContains(t, got, "script")
	assert.NotContains(t, got, "alert")
}

func TestPrepareContent(t *testing.T) {
	assert.Equal(t, "**raw**", prepareContent("**raw**", ""))
	assert.Contains(t, prepareContent("**raw**", contentFormatMarkdown), "<strong>raw</strong>")
}
