// Package seo answers site-audit questions from a crawl export. Each query is
// mapped to one of five fixed routines that read the audit Dataset.
package seo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/planner"
	"github.com/Bahjat/insight-router/internal/platform/errs"
	"github.com/Bahjat/insight-router/internal/platform/requestid"
)

// Agent runs audit routines against a shared, read-only Dataset.
type Agent struct {
	data   *Dataset
	logger *slog.Logger
}

// NewAgent returns an Agent over data.
func NewAgent(data *Dataset, logger *slog.Logger) *Agent {
	return &Agent{data: data, logger: logger.With("domain", "seo")}
}

// Run answers query. Missing columns produce a report naming the available
// ones. A panic inside a routine becomes a backend_failure envelope.
func (a *Agent) Run(ctx context.Context, query string) (res model.DomainResult) {
	logger := a.logger.With(requestid.Attr(ctx))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("audit routine panicked", "panic", r)
			res = model.DomainResult{Error: &model.ErrorEnvelope{
				Error: fmt.Sprintf("SEO analysis failed: %v", r),
				Kind:  errs.BackendFailure.String(),
				Query: query,
			}}
		}
	}()

	plan := planner.ParseAnalysis(query)
	logger.Debug("audit plan", "analysis_type", plan.Type)

	report := a.analyze(plan)
	report.Query = query
	report.AnalysisType = plan.Type
	if report.Error != "" {
		logger.Warn("audit routine could not run", "analysis_type", plan.Type, "error", report.Error)
	}
	return model.DomainResult{SEO: report}
}

func (a *Agent) analyze(plan model.AnalysisPlan) *model.SEOReport {
	if a.data == nil {
		return &model.SEOReport{Error: "No SEO data available"}
	}

	switch plan.Type {
	case model.NonHTTPSLongTitles:
		return analyzeNonHTTPSLongTitles(a.data, plan.Param("title_length_threshold", 60))
	case model.TitleAnalysis:
		return analyzeTitles(a.data, plan.Param("length_threshold", 60))
	case model.MetaDescriptionAnalysis:
		return analyzeMetaDescriptions(a.data, plan.Param("length_threshold", 160))
	case model.HTTPSAnalysis:
		return analyzeHTTPS(a.data)
	default:
		return generalHealth(a.data)
	}
}
