package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Everything user-supplied here (nicknames, group names, notes, exercise
// types) is plain text, so strip all markup rather than allowing a UGC subset.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips HTML from user input and trims surrounding whitespace.
func Sanitize(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}
