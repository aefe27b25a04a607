package endpoint

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	schemePattern   = regexp.MustCompile(`(?i)^https?://`)
	bareHostPattern = regexp.MustCompile(`^[\w.-]+(?::\d+)?(?:/.*)?$`)
)

// Sanitize normalizes an operator-supplied device address.
//
// Whitespace is trimmed, a bare host[:port][/path] gets an http:// prefix and
// trailing slashes are removed. Empty input, or anything that is still not an
// http(s) URL with a host afterwards, yields "".
func Sanitize(raw string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return ""
	}
	if !schemePattern.MatchString(candidate) {
		switch {
		case strings.HasPrefix(candidate, "//"):
			candidate = "http:" + candidate
		case bareHostPattern.MatchString(candidate):
			candidate = "http://" + candidate
		default:
			return ""
		}
	}
	candidate = stripTrailingSlashes(candidate)

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return ""
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return ""
	}
	return candidate
}

func stripTrailingSlashes(s string) string {
	return strings.TrimRight(s, "/")
}

// IsAbsoluteURL reports whether path already carries an http(s) scheme.
func IsAbsoluteURL(path string) bool {
	return schemePattern.MatchString(path)
}
