// Package router decides which domains a query touches, runs the matching
// agents and merges their answers.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/Bahjat/insight-router/internal/intent"
	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/platform/errs"
	"github.com/Bahjat/insight-router/internal/platform/metrics"
	"github.com/Bahjat/insight-router/internal/platform/requestid"
)

const (
	tracerName      = "github.com/Bahjat/insight-router/internal/router"
	mergedSummary   = "Combined analytics and SEO insights"
	insightCrossRef = "Cross-referencing traffic data with SEO health indicators"
	insightBoth     = "Both analytics and SEO data available for comprehensive analysis"
)

// AnalyticsAgent answers traffic questions for a property.
type AnalyticsAgent interface {
	Run(ctx context.Context, query, propertyID string) model.DomainResult
}

// SEOAgent answers site-audit questions.
type SEOAgent interface {
	Run(ctx context.Context, query string) model.DomainResult
}

// Router dispatches queries to domain agents.
type Router struct {
	analytics AnalyticsAgent
	seo       SEOAgent
	logger    *slog.Logger
	tracer    oteltrace.Tracer
}

// New returns a Router over the two agents. Spans go to the global tracer
// provider.
func New(analytics AnalyticsAgent, seo SEOAgent, logger *slog.Logger) *Router {
	return &Router{
		analytics: analytics,
		seo:       seo,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Handle routes q. Identifier and intent problems are returned as
// *errs.AppError before any agent runs; agent failures, including panics,
// are captured per domain inside the response.
func (r *Router) Handle(ctx context.Context, q model.Query) (*model.Response, error) {
	ctx, span := r.tracer.Start(ctx, "router.Handle")
	defer span.End()

	detected := intent.Detect(q.Text)
	metrics.QueriesTotal.WithLabelValues(detected.Label()).Inc()
	span.SetAttributes(
		attribute.Bool("intent.analytics", detected.Analytics),
		attribute.Bool("intent.seo", detected.SEO),
	)

	logger := r.logger.With(requestid.Attr(ctx))
	logger.Info("query intent", "analytics", detected.Analytics, "seo", detected.SEO)

	if detected.Analytics && strings.TrimSpace(q.PropertyID) == "" {
		err := &errs.AppError{
			Kind:    errs.MissingIdentifier,
			Message: "propertyId is required for GA4 analytics queries",
			Query:   q.Text,
		}
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}
	if detected.None() {
		err := &errs.AppError{
			Kind:    errs.UndeterminedIntent,
			Message: "Could not determine query intent. Please specify analytics or SEO related questions.",
			Query:   q.Text,
		}
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	results := make(map[string]model.DomainResult, 2)
	if detected.Analytics {
		results[string(intent.Analytics)] = r.dispatch(ctx, logger, intent.Analytics, q.Text, func() model.DomainResult {
			return r.analytics.Run(ctx, q.Text, q.PropertyID)
		})
	}
	if detected.SEO {
		results[string(intent.SEO)] = r.dispatch(ctx, logger, intent.SEO, q.Text, func() model.DomainResult {
			return r.seo.Run(ctx, q.Text)
		})
	}

	if !detected.Both() {
		for domain, res := range results {
			return &model.Response{Domain: domain, Result: &res}, nil
		}
	}

	return &model.Response{Merged: merge(q.Text, results)}, nil
}

// dispatch runs one agent, converting a panic into that domain's
// backend_failure envelope.
func (r *Router) dispatch(ctx context.Context, logger *slog.Logger, domain intent.Domain, query string, run func() model.DomainResult) (res model.DomainResult) {
	_, span := r.tracer.Start(ctx, "agent."+string(domain))
	start := time.Now()
	outcome := "ok"

	defer func() {
		if p := recover(); p != nil {
			logger.Error("agent panicked", "domain", domain, "panic", p)
			outcome = "panic"
			res = model.DomainResult{Error: &model.ErrorEnvelope{
				Error: fmt.Sprintf("%s processing failed: %v", displayName(domain), p),
				Kind:  errs.BackendFailure.String(),
				Query: query,
			}}
		} else if res.Failed() {
			outcome = "error"
		}

		if outcome != "ok" {
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		metrics.AgentRuns.WithLabelValues(string(domain), outcome).Inc()
		metrics.AgentDuration.WithLabelValues(string(domain)).Observe(time.Since(start).Seconds())
	}()

	return run()
}

func displayName(d intent.Domain) string {
	if d == intent.SEO {
		return "SEO"
	}
	return "Analytics"
}

func merge(query string, results map[string]model.DomainResult) *model.MergedResponse {
	insights := []string{insightCrossRef}
	failed := false
	for _, res := range results {
		failed = failed || res.Failed()
	}
	if !failed {
		insights = append(insights, insightBoth)
	}

	return &model.MergedResponse{
		Query:    query,
		Summary:  mergedSummary,
		Insights: insights,
		Data:     results,
	}
}
