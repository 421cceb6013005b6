// Package sanitize derives filesystem-safe filename stems from arbitrary
// text. Custom names and titles resolved from the remote source go
// through the same rules, so every output name obeys one policy.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-zA-Z0-9 _-]+`)
)

// BaseName reduces name to characters safe for a filename stem:
// letters, digits, space, underscore and hyphen. Runs of whitespace
// collapse to one space and leading/trailing separators are trimmed.
// The result may be empty; callers decide what that means.
func BaseName(name string) string {
	name = strings.TrimSpace(name)
	name = whitespaceRun.ReplaceAllString(name, " ")
	name = disallowed.ReplaceAllString(name, "")
	// stripping can leave adjacent spaces behind, collapse once more
	name = whitespaceRun.ReplaceAllString(name, " ")
	name = strings.Trim(name, " ._-")
	return name
}
