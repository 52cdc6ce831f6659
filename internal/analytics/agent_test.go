package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bahjat/insight-router/internal/allowlist"
	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/planner"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedPlanner implements planner.Planner for testing.
type fixedPlanner struct {
	plan model.QueryPlan
	err  error
}

func (f fixedPlanner) Plan(context.Context, string) (model.QueryPlan, error) {
	return f.plan, f.err
}

// fakeReporter implements Reporter for testing.
type fakeReporter struct {
	rows  []ReportRow
	err   error
	calls []ReportRequest
}

func (f *fakeReporter) RunReport(_ context.Context, req ReportRequest) ([]ReportRow, error) {
	f.calls = append(f.calls, req)
	return f.rows, f.err
}

func sessionsPlan() model.QueryPlan {
	return model.QueryPlan{Metrics: []string{"sessions"}, Dimensions: []string{"date"}, DateRange: "last_7_days"}
}

func TestAgent_DemoModeReturnsSevenRows(t *testing.T) {
	demo := NewDemoReporter(discardLogger())
	agent := NewAgent(planner.WithFallback(nil, discardLogger()), allowlist.Default(), demo, discardLogger())

	res := agent.Run(context.Background(), "page views by page this week", "123")

	require.False(t, res.Failed(), "unexpected error envelope: %+v", res.Error)
	require.NotNil(t, res.Analytics)
	assert.Len(t, res.Analytics.Rows, 7)
	assert.Equal(t, 7, res.Analytics.TotalRows)
	assert.Equal(t, []string{"screenPageViews"}, res.Analytics.Metrics)
	assert.Equal(t, []string{"date", "pagePath"}, res.Analytics.Dimensions)
	for _, row := range res.Analytics.Rows {
		assert.Contains(t, demoPaths, row.Dimensions["pagePath"])
		assert.Len(t, row.Dimensions["date"], 8)
	}
}

func TestAgent_FormatsRowsPositionally(t *testing.T) {
	rep := &fakeReporter{rows: []ReportRow{
		{DimensionValues: []string{"20240101", "/about"}, MetricValues: []string{"10", "4"}},
		{DimensionValues: []string{"20240102", "/"}, MetricValues: []string{"12", "5"}},
	}}
	plan := model.QueryPlan{
		Metrics:    []string{"sessions", "newUsers"},
		Dimensions: []string{"date", "pagePath"},
		DateRange:  "last week",
	}
	agent := NewAgent(fixedPlanner{plan: plan}, allowlist.Default(), rep, discardLogger())

	res := agent.Run(context.Background(), "sessions and new users by page", "999")

	require.NotNil(t, res.Analytics)
	report := res.Analytics
	assert.Equal(t, "GA4 analytics report for Last 7 days. Retrieved 2 data points for sessions, newUsers metrics.", report.Summary)
	assert.Equal(t, "Last 7 days", report.DateRange)
	assert.Equal(t, "sessions and new users by page", report.Query)
	assert.Equal(t, []model.ResultRow{
		{Dimensions: map[string]string{"date": "20240101", "pagePath": "/about"}, Metrics: map[string]string{"sessions": "10", "newUsers": "4"}},
		{Dimensions: map[string]string{"date": "20240102", "pagePath": "/"}, Metrics: map[string]string{"sessions": "12", "newUsers": "5"}},
	}, report.Rows)

	require.Len(t, rep.calls, 1)
	assert.Equal(t, "999", rep.calls[0].PropertyID)
	assert.Equal(t, "7daysAgo", rep.calls[0].Range.Start)
	assert.Equal(t, "today", rep.calls[0].Range.End)
}

func TestAgent_InvalidPlanNeverReachesBackend(t *testing.T) {
	rep := &fakeReporter{}
	plan := model.QueryPlan{
		Metrics:    []string{"revenue", "sessions", "profit"},
		Dimensions: []string{"date", "planet"},
		DateRange:  "last_7_days",
		Filters:    map[string]any{"secretField": "x"},
	}
	agent := NewAgent(fixedPlanner{plan: plan}, allowlist.Default(), rep, discardLogger())

	res := agent.Run(context.Background(), "revenue", "1")

	require.True(t, res.Failed())
	env := res.Error
	assert.Equal(t, "invalid_plan", env.Kind)
	assert.Equal(t, []string{"revenue", "profit"}, env.InvalidMetrics)
	assert.Equal(t, []string{"planet"}, env.InvalidDimensions)
	assert.Equal(t, []string{"secretField"}, env.InvalidFilters)
	assert.Equal(t, allowlist.Default().Metrics(), env.AllowedMetrics)
	assert.Equal(t, allowlist.Default().Dimensions(), env.AllowedDimensions)
	assert.Equal(t, "1", env.PropertyID)
	assert.Contains(t, env.Error, "Query validation failed")
	assert.Empty(t, rep.calls)
}

func TestAgent_EmptyMetricsRejected(t *testing.T) {
	rep := &fakeReporter{}
	plan := model.QueryPlan{Dimensions: []string{"date"}, DateRange: "last_7_days"}
	agent := NewAgent(fixedPlanner{plan: plan}, allowlist.Default(), rep, discardLogger())

	res := agent.Run(context.Background(), "q", "1")

	require.True(t, res.Failed())
	assert.Equal(t, "invalid_plan", res.Error.Kind)
	assert.Empty(t, rep.calls)
}

func TestAgent_NoDataReport(t *testing.T) {
	agent := NewAgent(fixedPlanner{plan: sessionsPlan()}, allowlist.Default(), &fakeReporter{}, discardLogger())

	res := agent.Run(context.Background(), "sessions", "42")

	require.NotNil(t, res.Analytics)
	report := res.Analytics
	assert.True(t, report.NoData)
	assert.Equal(t, "No data available for the selected period (Last 7 days).", report.Summary)
	assert.Equal(t, "This could be due to:", report.Message)
	assert.Len(t, report.PossibleReasons, 4)
	assert.Len(t, report.Suggestions, 3)
	assert.NotNil(t, report.Rows)
	assert.Empty(t, report.Rows)
	assert.Equal(t, "42", report.PropertyID)
	assert.Equal(t, "sessions", report.Query)
}

// blockingReporter waits for the request context to end.
type blockingReporter struct{}

func (blockingReporter) RunReport(ctx context.Context, _ ReportRequest) ([]ReportRow, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("run report: %w", ctx.Err())
}

func TestAgent_DeadlineIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := NewAgent(fixedPlanner{plan: sessionsPlan()}, allowlist.Default(), blockingReporter{}, discardLogger()).Run(ctx, "sessions", "7")

	require.True(t, res.Failed())
	assert.Equal(t, "timeout", res.Error.Kind)
	assert.Contains(t, res.Error.Error, "Analytics request timed out")
	assert.Equal(t, "7", res.Error.PropertyID)
}

func TestAgent_CanceledIsBackendFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewAgent(fixedPlanner{plan: sessionsPlan()}, allowlist.Default(), blockingReporter{}, discardLogger()).Run(ctx, "sessions", "7")

	require.True(t, res.Failed())
	assert.Equal(t, "backend_failure", res.Error.Kind)
}

func TestAgent_BackendFailures(t *testing.T) {
	tests := map[string]struct {
		planner  planner.Planner
		reporter *fakeReporter
	}{
		"reporter error": {
			planner:  fixedPlanner{plan: sessionsPlan()},
			reporter: &fakeReporter{err: errors.New("quota exceeded")},
		},
		"row shape mismatch": {
			planner:  fixedPlanner{plan: sessionsPlan()},
			reporter: &fakeReporter{rows: []ReportRow{{DimensionValues: []string{"20240101", "extra"}, MetricValues: []string{"1"}}}},
		},
		"planner error": {
			planner:  fixedPlanner{err: errors.New("planner broke")},
			reporter: &fakeReporter{},
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res := NewAgent(tt.planner, allowlist.Default(), tt.reporter, discardLogger()).Run(context.Background(), "sessions", "7")

			require.True(t, res.Failed())
			assert.Equal(t, "backend_failure", res.Error.Kind)
			assert.Equal(t, "sessions", res.Error.Query)
			assert.Equal(t, "7", res.Error.PropertyID)
			assert.Contains(t, res.Error.Error, "Analytics processing failed")
		})
	}
}

func TestAgent_PassesFiltersAsStrings(t *testing.T) {
	rep := &fakeReporter{}
	plan := sessionsPlan()
	plan.Filters = map[string]any{"pagePath": "/contact", "country": "Germany"}
	agent := NewAgent(fixedPlanner{plan: plan}, allowlist.Default(), rep, discardLogger())

	agent.Run(context.Background(), "sessions", "1")

	require.Len(t, rep.calls, 1)
	assert.Equal(t, map[string]string{"pagePath": "/contact", "country": "Germany"}, rep.calls[0].Filters)
}

func TestDemoReporter(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)
	demo := &DemoReporter{now: func() time.Time { return now }, logger: discardLogger()}
	req := ReportRequest{
		Dimensions: []string{"date", "country"},
		Metrics:    []string{"sessions", "totalUsers", "screenPageViews", "bounceRate"},
	}

	rows, err := demo.RunReport(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, rows, 7)

	assert.Equal(t, "20240304", rows[0].DimensionValues[0])
	assert.Equal(t, "20240310", rows[6].DimensionValues[0])
	assert.Equal(t, "demo_value", rows[3].DimensionValues[1])

	bands := []valueBand{{50, 500}, {40, 400}, {100, 800}, {10, 100}}
	for _, row := range rows {
		for i, v := range row.MetricValues {
			assert.Regexp(t, `^\d+$`, v)
			n := atoi(t, v)
			assert.GreaterOrEqual(t, n, bands[i].lo)
			assert.LessOrEqual(t, n, bands[i].hi)
		}
	}

	again, err := demo.RunReport(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}
