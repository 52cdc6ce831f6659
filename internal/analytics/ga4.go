package analytics

import (
	"context"
	"fmt"
	"slices"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
)

// GA4Reporter runs reports through the Google Analytics Data API.
type GA4Reporter struct {
	svc *analyticsdata.Service
}

// NewGA4Reporter creates a reporter. Callers supply credentials through opts,
// typically option.WithCredentialsFile.
func NewGA4Reporter(ctx context.Context, opts ...option.ClientOption) (*GA4Reporter, error) {
	svc, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ga4: create service: %w", err)
	}
	return &GA4Reporter{svc: svc}, nil
}

// RunReport implements Reporter.
func (g *GA4Reporter) RunReport(ctx context.Context, req ReportRequest) ([]ReportRow, error) {
	body := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{
			{StartDate: req.Range.Start, EndDate: req.Range.End},
		},
		DimensionFilter: filterExpression(req.Filters),
	}
	for _, d := range req.Dimensions {
		body.Dimensions = append(body.Dimensions, &analyticsdata.Dimension{Name: d})
	}
	for _, m := range req.Metrics {
		body.Metrics = append(body.Metrics, &analyticsdata.Metric{Name: m})
	}

	resp, err := g.svc.Properties.RunReport("properties/"+req.PropertyID, body).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ga4: run report: %w", err)
	}

	rows := make([]ReportRow, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		row := ReportRow{
			DimensionValues: make([]string, len(r.DimensionValues)),
			MetricValues:    make([]string, len(r.MetricValues)),
		}
		for i, v := range r.DimensionValues {
			row.DimensionValues[i] = v.Value
		}
		for i, v := range r.MetricValues {
			row.MetricValues[i] = v.Value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// filterExpression ANDs one exact-match string filter per field, or returns
// nil when there is nothing to filter on.
func filterExpression(filters map[string]string) *analyticsdata.FilterExpression {
	if len(filters) == 0 {
		return nil
	}

	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	exprs := make([]*analyticsdata.FilterExpression, 0, len(fields))
	for _, f := range fields {
		exprs = append(exprs, &analyticsdata.FilterExpression{
			Filter: &analyticsdata.Filter{
				FieldName: f,
				StringFilter: &analyticsdata.StringFilter{
					MatchType: "EXACT",
					Value:     filters[f],
				},
			},
		})
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &analyticsdata.FilterExpression{
		AndGroup: &analyticsdata.FilterExpressionList{Expressions: exprs},
	}
}
