// Package daterange turns natural-language date labels into the relative
// start/end tokens the reporting API understands, and back into text.
package daterange

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Range is a canonical reporting window such as {"7daysAgo", "today"}.
type Range struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

// Default is used whenever a label cannot be understood.
var Default = Range{Start: "7daysAgo", End: "today"}

type synonymGroup struct {
	labels []string
	rng    Range
}

var synonyms = []synonymGroup{
	{labels: []string{"last_7_days", "last_week", "past_7_days"}, rng: Range{"7daysAgo", "today"}},
	{labels: []string{"last_14_days", "past_14_days", "two_weeks"}, rng: Range{"14daysAgo", "today"}},
	{labels: []string{"last_30_days", "last_month", "past_30_days"}, rng: Range{"30daysAgo", "today"}},
	{labels: []string{"last_90_days", "last_quarter", "past_90_days"}, rng: Range{"90daysAgo", "today"}},
	{labels: []string{"last_year", "past_year", "last_365_days"}, rng: Range{"365daysAgo", "today"}},
	{labels: []string{"yesterday"}, rng: Range{"yesterday", "yesterday"}},
	{labels: []string{"today", "current_day"}, rng: Range{"today", "today"}},
}

var descriptions = map[Range]string{
	{"7daysAgo", "today"}:      "Last 7 days",
	{"14daysAgo", "today"}:     "Last 14 days",
	{"30daysAgo", "today"}:     "Last 30 days",
	{"yesterday", "yesterday"}: "Yesterday",
	{"today", "today"}:         "Today",
}

// Labels are normalized with spaces turned into underscores, so the
// separator between count and unit may be either.
var numericPattern = regexp.MustCompile(`(\d+)[\s_]*(day|week|month)s?`)

// Resolve normalizes label and maps it to a Range. It never fails: labels
// that match neither the synonym table nor the "<N> <unit>" pattern resolve
// to the 7-day default.
func Resolve(label string) Range {
	normalized := strings.ReplaceAll(strings.ToLower(label), " ", "_")

	for _, group := range synonyms {
		for _, l := range group.labels {
			if l == normalized {
				return group.rng
			}
		}
	}

	m := numericPattern.FindStringSubmatch(normalized)
	if m == nil {
		return Default
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Default
	}

	days := n
	switch m[2] {
	case "week":
		days = n * 7
	case "month":
		days = n * 30
	}
	return Range{Start: fmt.Sprintf("%ddaysAgo", days), End: "today"}
}

// Describe renders r for humans.
func Describe(r Range) string {
	if d, ok := descriptions[r]; ok {
		return d
	}
	return r.Start + " to " + r.End
}
