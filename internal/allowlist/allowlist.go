// Package allowlist enforces the fixed set of analytics metrics and
// dimensions a plan may reference before it reaches the reporting backend.
package allowlist

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Bahjat/insight-router/internal/model"
)

// ErrInvalidPlan matches every *InvalidPlanError via errors.Is.
var ErrInvalidPlan = errors.New("plan validation failed")

// InvalidPlanError lists every reason a plan was rejected.
type InvalidPlanError struct {
	InvalidMetrics    []string
	InvalidDimensions []string
	InvalidFilters    []string
	MissingMetrics    bool
	MissingDateRange  bool
}

func (e *InvalidPlanError) Error() string {
	var reasons []string
	if len(e.InvalidMetrics) > 0 {
		reasons = append(reasons, fmt.Sprintf("invalid metrics: %v", e.InvalidMetrics))
	}
	if len(e.InvalidDimensions) > 0 {
		reasons = append(reasons, fmt.Sprintf("invalid dimensions: %v", e.InvalidDimensions))
	}
	if len(e.InvalidFilters) > 0 {
		reasons = append(reasons, fmt.Sprintf("invalid filter fields: %v", e.InvalidFilters))
	}
	if e.MissingMetrics {
		reasons = append(reasons, "at least one metric is required")
	}
	if e.MissingDateRange {
		reasons = append(reasons, "date range is required")
	}
	return ErrInvalidPlan.Error() + ": " + strings.Join(reasons, "; ")
}

// Is reports whether target is ErrInvalidPlan.
func (e *InvalidPlanError) Is(target error) bool {
	return target == ErrInvalidPlan
}

// ValidatedPlan is a plan whose every field passed the allowlists. It can
// only be obtained from Validate.
type ValidatedPlan struct {
	plan model.QueryPlan
}

// Plan returns a copy of the validated plan.
func (v ValidatedPlan) Plan() model.QueryPlan {
	return v.plan.Clone()
}

// Metrics returns the validated metric names in plan order.
func (v ValidatedPlan) Metrics() []string { return slices.Clone(v.plan.Metrics) }

// Dimensions returns the validated dimension names in plan order.
func (v ValidatedPlan) Dimensions() []string { return slices.Clone(v.plan.Dimensions) }

// DateRange returns the plan's date label.
func (v ValidatedPlan) DateRange() string { return v.plan.DateRange }

// Allowlist holds the permitted metrics and dimensions plus the advisory
// metric → dimension compatibility matrix. It is read-only after creation.
type Allowlist struct {
	metrics       map[string]struct{}
	dimensions    map[string]struct{}
	compatibility map[string][]string
}

// New builds an Allowlist from the given names.
func New(metrics, dimensions []string, compatibility map[string][]string) *Allowlist {
	a := &Allowlist{
		metrics:       make(map[string]struct{}, len(metrics)),
		dimensions:    make(map[string]struct{}, len(dimensions)),
		compatibility: make(map[string][]string, len(compatibility)),
	}
	for _, m := range metrics {
		a.metrics[m] = struct{}{}
	}
	for _, d := range dimensions {
		a.dimensions[d] = struct{}{}
	}
	for m, dims := range compatibility {
		a.compatibility[m] = slices.Clone(dims)
	}
	return a
}

var defaultAllowlist = New(
	[]string{
		"sessions",
		"totalUsers",
		"screenPageViews",
		"activeUsers",
		"newUsers",
		"bounceRate",
		"averageSessionDuration",
		"conversions",
		"eventCount",
		"engagementRate",
	},
	[]string{
		"date",
		"pagePath",
		"pageTitle",
		"sessionSource",
		"sessionMedium",
		"sessionCampaign",
		"country",
		"city",
		"deviceCategory",
		"operatingSystem",
		"browser",
		"eventName",
		"landingPage",
	},
	map[string][]string{
		"sessions":        {"date", "pagePath", "sessionSource", "country", "deviceCategory"},
		"totalUsers":      {"date", "country", "deviceCategory", "sessionSource"},
		"screenPageViews": {"date", "pagePath", "pageTitle"},
		"bounceRate":      {"date", "pagePath", "sessionSource"},
		"conversions":     {"date", "eventName", "sessionSource"},
	},
)

// Default returns the process-wide allowlist for the GA4 Data API.
func Default() *Allowlist {
	return defaultAllowlist
}

// Metrics returns the permitted metric names, sorted.
func (a *Allowlist) Metrics() []string {
	return sortedKeys(a.metrics)
}

// Dimensions returns the permitted dimension names, sorted.
func (a *Allowlist) Dimensions() []string {
	return sortedKeys(a.dimensions)
}

// Validate checks plan against the allowlists. On failure the returned
// *InvalidPlanError names every offending field, not only the first.
func (a *Allowlist) Validate(plan model.QueryPlan) (ValidatedPlan, error) {
	var verr InvalidPlanError

	for _, m := range plan.Metrics {
		if _, ok := a.metrics[m]; !ok {
			verr.InvalidMetrics = append(verr.InvalidMetrics, m)
		}
	}
	for _, d := range plan.Dimensions {
		if _, ok := a.dimensions[d]; !ok {
			verr.InvalidDimensions = append(verr.InvalidDimensions, d)
		}
	}
	for _, field := range sortedKeys(plan.Filters) {
		if _, ok := a.dimensions[field]; !ok {
			verr.InvalidFilters = append(verr.InvalidFilters, field)
		}
	}
	verr.MissingMetrics = len(plan.Metrics) == 0
	verr.MissingDateRange = strings.TrimSpace(plan.DateRange) == ""

	if len(verr.InvalidMetrics) > 0 || len(verr.InvalidDimensions) > 0 ||
		len(verr.InvalidFilters) > 0 || verr.MissingMetrics || verr.MissingDateRange {
		return ValidatedPlan{}, &verr
	}

	return ValidatedPlan{plan: plan.Clone()}, nil
}

// CompatibilityWarnings lists metric/dimension pairs the compatibility matrix
// does not mention. The matrix is advisory: warnings never block a plan.
func (a *Allowlist) CompatibilityWarnings(plan model.QueryPlan) []string {
	var warnings []string
	for _, m := range plan.Metrics {
		compatible, known := a.compatibility[m]
		if !known {
			continue
		}
		for _, d := range plan.Dimensions {
			if !slices.Contains(compatible, d) {
				warnings = append(warnings, fmt.Sprintf("metric %q is not usually paired with dimension %q", m, d))
			}
		}
	}
	return warnings
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
