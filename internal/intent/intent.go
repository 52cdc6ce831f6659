// Package intent classifies queries into the domains they touch using literal
// keyword tables. Matching is plain substring containment over the lowercased
// query, so "views" also matches inside "reviews".
package intent

import "strings"

// Domain names a backend a query can be routed to.
type Domain string

const (
	Analytics Domain = "analytics"
	SEO       Domain = "seo"
)

var analyticsKeywords = []string{
	"page view", "pageview", "users", "sessions", "traffic", "views",
	"bounce rate", "conversion", "goal", "event", "audience",
	"acquisition", "behavior", "demographic", "geographic",
	"device", "browser", "source", "medium", "campaign",
}

var seoKeywords = []string{
	"title", "meta", "index", "https", "seo", "crawl",
	"heading", "alt text", "schema", "sitemap", "robot",
	"canonical", "redirect", "broken link", "duplicate",
	"page speed", "mobile friendly", "structured data",
}

var supported = []string{
	"Analytics: page views, users, sessions, traffic",
	"SEO: titles, meta tags, indexing, HTTPS status",
}

// Result is the outcome of intent detection. Both flags may be set.
type Result struct {
	Analytics bool
	SEO       bool
}

// None reports whether no domain matched.
func (r Result) None() bool {
	return !r.Analytics && !r.SEO
}

// Both reports whether the query spans both domains.
func (r Result) Both() bool {
	return r.Analytics && r.SEO
}

// Label is a metrics-friendly name for the detected combination.
func (r Result) Label() string {
	switch {
	case r.Both():
		return "merged"
	case r.Analytics:
		return string(Analytics)
	case r.SEO:
		return string(SEO)
	default:
		return "none"
	}
}

// Detect runs both keyword tables independently against query.
func Detect(query string) Result {
	q := strings.ToLower(query)
	return Result{
		Analytics: matchAny(q, analyticsKeywords),
		SEO:       matchAny(q, seoKeywords),
	}
}

// Supported returns the intent catalogue shown when nothing matched.
func Supported() []string {
	return append([]string(nil), supported...)
}

func matchAny(q string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
