// Package sanitizer cleans mail body content before it is handed to the
// presentation layer. Mail bodies are written by guests, hosts, and support
// staff and may carry limited formatting; anything beyond that is stripped
// to prevent XSS when the body is rendered.
package sanitizer

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// BodySanitizer sanitizes mail body content for display
type BodySanitizer interface {
	// Sanitize strips disallowed markup from a mail body
	Sanitize(body string) string
	// Preview returns a plain-text preview of at most maxLength runes,
	// truncated at a word boundary
	Preview(body string, maxLength int) string
}

// DefaultBodySanitizer implements BodySanitizer using bluemonday
type DefaultBodySanitizer struct {
	display *bluemonday.Policy
	strip   *bluemonday.Policy
}

// NewBodySanitizer creates a sanitizer with a conservative formatting policy:
// paragraphs, line breaks, emphasis, links and lists survive; everything else
// (scripts, images, styles, event handlers) is removed.
func NewBodySanitizer() *DefaultBodySanitizer {
	display := bluemonday.NewPolicy()
	display.AllowElements("p", "br", "strong", "b", "em", "i", "u", "ul", "ol", "li", "blockquote")
	display.AllowAttrs("href").OnElements("a")
	display.AllowElements("a")
	display.RequireNoFollowOnLinks(true)
	display.AllowURLSchemes("https", "mailto")

	return &DefaultBodySanitizer{
		display: display,
		strip:   bluemonday.StrictPolicy(),
	}
}

// Sanitize strips disallowed markup from a mail body
func (s *DefaultBodySanitizer) Sanitize(body string) string {
	if body == "" {
		return ""
	}
	return s.display.Sanitize(body)
}

// Preview returns a plain-text preview of the body, truncated at a word
// boundary with an ellipsis. All markup is removed first.
func (s *DefaultBodySanitizer) Preview(body string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 160
	}

	text := strings.TrimSpace(s.strip.Sanitize(body))
	if text == "" {
		return ""
	}
	if len(text) <= maxLength {
		return text
	}

	truncated := text[:maxLength]
	lastSpace := strings.LastIndexFunc(truncated, unicode.IsSpace)
	// Only cut at the space when it leaves a reasonable chunk of text
	if lastSpace > maxLength/2 {
		truncated = truncated[:lastSpace]
	}

	return strings.TrimSpace(truncated) + "..."
}
