package analytics

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"google.golang.org/api/option"

	"github.com/Bahjat/insight-router/internal/daterange"
)

// ReportRequest is a single reporting call built from a validated plan.
type ReportRequest struct {
	PropertyID string
	Dimensions []string
	Metrics    []string
	Range      daterange.Range
	// Filters holds exact-match constraints keyed by dimension name.
	Filters map[string]string
}

// ReportRow carries a row's values in the same order as the request's
// dimension and metric names.
type ReportRow struct {
	DimensionValues []string
	MetricValues    []string
}

// Reporter runs a report against an analytics backend.
type Reporter interface {
	RunReport(ctx context.Context, req ReportRequest) ([]ReportRow, error)
}

// NewReporter returns a GA4 reporter when credentialsFile exists and can be
// loaded, and a DemoReporter otherwise.
func NewReporter(ctx context.Context, credentialsFile string, logger *slog.Logger) Reporter {
	if _, err := os.Stat(credentialsFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("cannot read analytics credentials, running in demo mode", "path", credentialsFile, "error", err)
		} else {
			logger.Warn("analytics credentials not found, running in demo mode", "path", credentialsFile)
		}
		return NewDemoReporter(logger)
	}

	reporter, err := NewGA4Reporter(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		logger.Warn("analytics credentials invalid, running in demo mode", "path", credentialsFile, "error", err)
		return NewDemoReporter(logger)
	}

	logger.Info("analytics reporter ready", "backend", "ga4")
	return reporter
}
