package api

import (
	"regexp"
	"strings"
)

// absoluteURL matches "<scheme>://" or a protocol-relative "//" prefix.
// A scheme starts with a letter followed by letters, digits, "+", "." or "-".
var absoluteURL = regexp.MustCompile(`(?i)^([a-z][a-z\d+.\-]*:)?//`)

// IsAbsoluteURL reports whether url already names its own origin.
func IsAbsoluteURL(url string) bool {
	return absoluteURL.MatchString(url)
}

// CombineURLs joins base and relative with exactly one slash.
// An empty relative returns base unchanged.
func CombineURLs(base, relative string) string {
	if relative == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(relative, "/")
}

// BuildFullPath resolves requested against base. Absolute URLs, and any URL
// when base is empty, are returned untouched.
func BuildFullPath(base, requested string) string {
	if base == "" || IsAbsoluteURL(requested) {
		return requested
	}
	return CombineURLs(base, requested)
}
