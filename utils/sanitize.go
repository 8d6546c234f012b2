package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// maxSanitizePasses bounds the strip/unescape loop for nested entity encodings.
const maxSanitizePasses = 4

// Sanitize strips unsafe HTML from user supplied text and trims surrounding whitespace.
// Plain text is returned unescaped, so "Tom & Jerry" is stored as written. Escaped markup
// such as "&lt;script&gt;" is decoded and stripped again until the text is stable.
func Sanitize(input string) string {
	out := input
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(sanitizer.Sanitize(out))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// Still changing: keep the escaped form rather than risk live markup.
	return strings.TrimSpace(sanitizer.Sanitize(out))
}
