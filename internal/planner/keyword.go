package planner

import (
	"context"
	"slices"
	"strings"

	"github.com/Bahjat/insight-router/internal/model"
)

// KeywordPlanner derives a plan from keyword groups in the lowercased query.
// Rules run in a fixed order and later rules overwrite or extend what earlier
// ones set.
type KeywordPlanner struct{}

// Plan implements Planner. It never fails.
func (KeywordPlanner) Plan(_ context.Context, query string) (model.QueryPlan, error) {
	q := strings.ToLower(query)

	plan := model.QueryPlan{
		Metrics:    []string{"sessions"},
		Dimensions: []string{"date"},
		DateRange:  "last_7_days",
	}

	if containsAny(q, "user", "visitor", "audience") {
		plan.Metrics = []string{"totalUsers", "activeUsers"}
	}
	if containsAny(q, "page view", "pageview", "views") {
		plan.Metrics = []string{"screenPageViews"}
	}
	if containsAny(q, "bounce", "engagement") {
		plan.Metrics = []string{"bounceRate"}
	}

	// With "date" present the list is replaced by [date, pagePath] rather
	// than extended.
	if containsAny(q, "page", "url", "path") {
		if !slices.Contains(plan.Dimensions, "date") {
			plan.Dimensions = append(plan.Dimensions, "pagePath")
		} else {
			plan.Dimensions = []string{"date", "pagePath"}
		}
	}
	if containsAny(q, "country", "location", "geo") {
		plan.Dimensions = append(plan.Dimensions, "country")
	}
	if containsAny(q, "device", "mobile", "desktop") {
		plan.Dimensions = append(plan.Dimensions, "deviceCategory")
	}

	switch {
	case containsAny(q, "yesterday"):
		plan.DateRange = "yesterday"
	case containsAny(q, "month", "30 days"):
		plan.DateRange = "last_30_days"
	case containsAny(q, "week", "14 days"):
		plan.DateRange = "last_14_days"
	}

	return plan, nil
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
