package storage

import (
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-.]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9_.-] with an
// underscore. Separators are replaced too, so the result is always a single
// path element. "." and ".." become underscores.
func SanitizeFilename(name string) string {
	s := unsafeFilenameChars.ReplaceAllString(name, "_")
	switch s {
	case "":
		return "_"
	case ".", "..":
		return strings.Repeat("_", len(s))
	}
	return s
}
