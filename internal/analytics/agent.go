// Package analytics answers traffic questions: it plans a report, checks the
// plan against the allowlists, runs it on a Reporter and formats the rows.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Bahjat/insight-router/internal/allowlist"
	"github.com/Bahjat/insight-router/internal/daterange"
	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/planner"
	"github.com/Bahjat/insight-router/internal/platform/errs"
	"github.com/Bahjat/insight-router/internal/platform/metrics"
	"github.com/Bahjat/insight-router/internal/platform/requestid"
)

var errRowShape = errors.New("analytics: row does not match requested fields")

var noDataReasons = []string{
	"No traffic during the selected time period",
	"Data processing delay (GA4 data can be delayed up to 24-48 hours)",
	"Property ID may not have data for the requested metrics",
	"Filters may be too restrictive",
}

var noDataSuggestions = []string{
	"Try a different date range (e.g., last 30 days)",
	"Check if the property ID is correct",
	"Verify the website has tracking implemented",
}

// Agent executes analytics queries end to end.
type Agent struct {
	planner  planner.Planner
	allow    *allowlist.Allowlist
	reporter Reporter
	logger   *slog.Logger
}

// NewAgent wires an Agent. allow is usually allowlist.Default().
func NewAgent(p planner.Planner, allow *allowlist.Allowlist, reporter Reporter, logger *slog.Logger) *Agent {
	return &Agent{
		planner:  p,
		allow:    allow,
		reporter: reporter,
		logger:   logger.With("domain", "analytics"),
	}
}

// Run answers query for the given property. Every failure is returned as an
// error envelope inside the result.
func (a *Agent) Run(ctx context.Context, query, propertyID string) model.DomainResult {
	logger := a.logger.With("property_id", propertyID, requestid.Attr(ctx))

	plan, err := a.planner.Plan(ctx, query)
	if err != nil {
		logger.Error("planning failed", "error", err)
		return a.backendFailure(query, propertyID, err)
	}

	validated, err := a.allow.Validate(plan)
	if err != nil {
		metrics.PlanValidationFailures.Inc()
		logger.Warn("plan rejected", "error", err)
		return a.invalidPlan(query, propertyID, err)
	}
	if warnings := a.allow.CompatibilityWarnings(plan); len(warnings) > 0 {
		logger.Info("plan compatibility warnings", "warnings", warnings)
	}

	rng := daterange.Resolve(validated.DateRange())
	req := ReportRequest{
		PropertyID: propertyID,
		Dimensions: validated.Dimensions(),
		Metrics:    validated.Metrics(),
		Range:      rng,
		Filters:    stringFilters(validated.Plan().Filters),
	}

	rows, err := a.reporter.RunReport(ctx, req)
	if err != nil {
		logger.Error("report failed", "error", err)
		return a.backendFailure(query, propertyID, err)
	}

	desc := daterange.Describe(rng)
	if len(rows) == 0 {
		return model.DomainResult{Analytics: noDataReport(query, req, desc)}
	}

	report, err := formatReport(query, req, rows, desc)
	if err != nil {
		logger.Error("report formatting failed", "error", err)
		return a.backendFailure(query, propertyID, err)
	}

	logger.Debug("report complete", "rows", report.TotalRows)
	return model.DomainResult{Analytics: report}
}

func (a *Agent) invalidPlan(query, propertyID string, err error) model.DomainResult {
	env := &model.ErrorEnvelope{
		Error:             fmt.Sprintf("Query validation failed: %v", err),
		Kind:              errs.InvalidPlan.String(),
		Query:             query,
		PropertyID:        propertyID,
		AllowedMetrics:    a.allow.Metrics(),
		AllowedDimensions: a.allow.Dimensions(),
	}
	var verr *allowlist.InvalidPlanError
	if errors.As(err, &verr) {
		env.InvalidMetrics = verr.InvalidMetrics
		env.InvalidDimensions = verr.InvalidDimensions
		env.InvalidFilters = verr.InvalidFilters
	}
	return model.DomainResult{Error: env}
}

// backendFailure reports err as a backend_failure envelope, or as a timeout
// when the request deadline cut the call off.
func (a *Agent) backendFailure(query, propertyID string, err error) model.DomainResult {
	env := &model.ErrorEnvelope{
		Error:      fmt.Sprintf("Analytics processing failed: %v", err),
		Kind:       errs.BackendFailure.String(),
		Query:      query,
		PropertyID: propertyID,
	}
	if errors.Is(err, context.DeadlineExceeded) {
		env.Error = fmt.Sprintf("Analytics request timed out: %v", err)
		env.Kind = errs.Timeout.String()
	}
	return model.DomainResult{Error: env}
}

func noDataReport(query string, req ReportRequest, desc string) *model.AnalyticsReport {
	return &model.AnalyticsReport{
		Summary:         fmt.Sprintf("No data available for the selected period (%s).", desc),
		Query:           query,
		Message:         "This could be due to:",
		PossibleReasons: append([]string(nil), noDataReasons...),
		Suggestions:     append([]string(nil), noDataSuggestions...),
		PropertyID:      req.PropertyID,
		Metrics:         req.Metrics,
		Dimensions:      req.Dimensions,
		DateRange:       desc,
		Rows:            []model.ResultRow{},
		NoData:          true,
	}
}

// formatReport keys each row's values by position against the requested
// names. A row whose value counts differ from the names is a backend fault.
func formatReport(query string, req ReportRequest, rows []ReportRow, desc string) (*model.AnalyticsReport, error) {
	out := make([]model.ResultRow, 0, len(rows))
	for i, r := range rows {
		if len(r.DimensionValues) != len(req.Dimensions) || len(r.MetricValues) != len(req.Metrics) {
			return nil, fmt.Errorf("%w: row %d has %d dimensions and %d metrics, want %d and %d",
				errRowShape, i, len(r.DimensionValues), len(r.MetricValues), len(req.Dimensions), len(req.Metrics))
		}

		row := model.ResultRow{
			Dimensions: make(map[string]string, len(req.Dimensions)),
			Metrics:    make(map[string]string, len(req.Metrics)),
		}
		for j, name := range req.Dimensions {
			row.Dimensions[name] = r.DimensionValues[j]
		}
		for j, name := range req.Metrics {
			row.Metrics[name] = r.MetricValues[j]
		}
		out = append(out, row)
	}

	return &model.AnalyticsReport{
		Summary: fmt.Sprintf("GA4 analytics report for %s. Retrieved %d data points for %s metrics.",
			desc, len(out), strings.Join(req.Metrics, ", ")),
		Query:      query,
		PropertyID: req.PropertyID,
		Metrics:    req.Metrics,
		Dimensions: req.Dimensions,
		DateRange:  desc,
		Rows:       out,
		TotalRows:  len(out),
	}, nil
}

func stringFilters(filters map[string]any) map[string]string {
	if len(filters) == 0 {
		return nil
	}
	out := make(map[string]string, len(filters))
	for k, v := range filters {
		out[k] = fmt.Sprint(v)
	}
	return out
}
