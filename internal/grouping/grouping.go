// Package grouping clusters and deduplicates tabs by URL. Used by
// workspace capture (drop duplicate tabs) and the sidebar's
// group-by-domain view.
package grouping

import (
	"net/url"
	"sort"
	"strings"

	"github.com/SwajanJain/tabwise/internal/types"
	"github.com/SwajanJain/tabwise/internal/urlmatch"
)

// skipPrefixes are URL schemes that never belong in a workspace or a
// domain group.
var skipPrefixes = []string{"about:", "moz-extension:", "chrome:", "resource:", "data:", "file:"}

// Capturable reports whether a URL is worth persisting: a regular web
// page, not browser chrome.
func Capturable(rawURL string) bool {
	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(rawURL, prefix) {
			return false
		}
	}
	return rawURL != ""
}

// Normalize canonicalizes a URL for duplicate detection: fragment
// dropped, query parameter values sorted, trailing slash trimmed except
// on the bare root. Unparsable URLs come back unchanged.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	params := u.Query()
	for k := range params {
		sort.Strings(params[k])
	}
	u.RawQuery = params.Encode()
	result := u.String()
	if strings.HasSuffix(result, "/") && result != u.Scheme+"://"+u.Host+"/" {
		result = strings.TrimRight(result, "/")
	}
	return result
}

// Dedupe returns the tabs with duplicates (by normalized URL) removed,
// keeping the first occurrence and the original order.
func Dedupe(tabs []types.Tab) []types.Tab {
	seen := make(map[string]bool, len(tabs))
	out := make([]types.Tab, 0, len(tabs))
	for _, tab := range tabs {
		key := Normalize(tab.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tab)
	}
	return out
}

// DomainGroup is a set of tabs sharing a hostname.
type DomainGroup struct {
	Domain string
	Tabs   []types.Tab
}

// ByDomain clusters tabs by hostname. Tabs without a usable hostname
// are collected under the empty domain at the end. Groups are ordered
// by size descending, then domain name, so the noisiest sites come
// first.
func ByDomain(tabs []types.Tab) []DomainGroup {
	byHost := make(map[string][]types.Tab)
	for _, tab := range tabs {
		host, ok := urlmatch.Hostname(tab.URL)
		if !ok {
			host = ""
		}
		byHost[host] = append(byHost[host], tab)
	}

	groups := make([]DomainGroup, 0, len(byHost))
	for host, ts := range byHost {
		groups = append(groups, DomainGroup{Domain: host, Tabs: ts})
	}
	sort.Slice(groups, func(i, j int) bool {
		// Hostless tabs sort last regardless of count.
		if (groups[i].Domain == "") != (groups[j].Domain == "") {
			return groups[j].Domain == ""
		}
		if len(groups[i].Tabs) != len(groups[j].Tabs) {
			return len(groups[i].Tabs) > len(groups[j].Tabs)
		}
		return groups[i].Domain < groups[j].Domain
	})
	return groups
}
