// Package urlmatch decides whether an open tab "is" a favorite's target.
//
// Matching is domain-level on purpose: a binding has to survive normal
// navigation inside a site (inbox to a single mail, repo root to a file
// view), so path, query and fragment are ignored. The cost is that two
// unrelated pages on the same host count as the same target; that
// trade-off is what keeps bindings stable and must not be tightened to
// path-level comparison.
package urlmatch

import (
	"net/url"
	"strings"
)

// Hostname extracts the lowercased hostname from a raw URL. ok is false
// when the URL does not parse or has no host (about:, data:, garbage).
func Hostname(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	return strings.ToLower(u.Hostname()), true
}

// Matches reports whether tabURL and targetURL share a hostname.
// Malformed input on either side never matches.
func Matches(tabURL, targetURL string) bool {
	th, ok := Hostname(tabURL)
	if !ok {
		return false
	}
	gh, ok := Hostname(targetURL)
	if !ok {
		return false
	}
	return th == gh
}
