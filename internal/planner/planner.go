// Package planner turns free-text questions into structured plans. Analytics
// plans come from a model-backed planner wrapped by a deterministic keyword
// fallback; audit plans come from fixed substring rules.
package planner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/platform/metrics"
	"github.com/Bahjat/insight-router/internal/platform/requestid"
)

// Planner produces an analytics plan for a query.
type Planner interface {
	Plan(ctx context.Context, query string) (model.QueryPlan, error)
}

// Fallback tries a primary planner once and substitutes the keyword plan on
// any failure. It never returns an error.
type Fallback struct {
	primary  Planner
	fallback KeywordPlanner
	logger   *slog.Logger
}

// WithFallback wraps primary, which may be nil when no model is configured.
func WithFallback(primary Planner, logger *slog.Logger) *Fallback {
	return &Fallback{primary: primary, logger: logger}
}

// Plan implements Planner.
func (f *Fallback) Plan(ctx context.Context, query string) (model.QueryPlan, error) {
	if f.primary == nil {
		return f.degrade(ctx, query, "unconfigured", nil)
	}

	plan, err := f.primary.Plan(ctx, query)
	if err != nil {
		reason := "call_failed"
		if errors.Is(err, ErrMalformedPlan) {
			reason = "malformed"
		}
		return f.degrade(ctx, query, reason, err)
	}
	return plan, nil
}

func (f *Fallback) degrade(ctx context.Context, query, reason string, cause error) (model.QueryPlan, error) {
	metrics.PlanFallbacks.WithLabelValues(reason).Inc()

	attrs := []any{"query", query, "reason", reason, requestid.Attr(ctx)}
	if cause != nil {
		attrs = append(attrs, "error", cause)
	}
	f.logger.Warn("using fallback plan", attrs...)

	plan, _ := f.fallback.Plan(ctx, query)
	return plan, nil
}
