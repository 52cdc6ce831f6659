package queryapi

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/platform/errs"
	"github.com/Bahjat/insight-router/internal/platform/requestid"
)

// Service wraps a QueryRouter with outcome logging.
type Service struct {
	router QueryRouter
	logger *slog.Logger
}

// NewService creates a Service backed by the given router.
func NewService(router QueryRouter, logger *slog.Logger) *Service {
	return &Service{router: router, logger: logger}
}

// Query delegates to the router and logs the outcome.
func (s *Service) Query(ctx context.Context, q model.Query) (*model.Response, error) {
	logger := s.logger.With(slog.String("property_id", q.PropertyID), requestid.Attr(ctx))

	resp, err := s.router.Handle(ctx, q)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &errs.AppError{
				Kind:    errs.Timeout,
				Message: "The query took too long to answer.",
				Query:   q.Text,
				Cause:   err,
			}
		}

		kind := errs.Unknown
		var appErr *errs.AppError
		if errors.As(err, &appErr) {
			kind = appErr.Kind
		}
		logger.Warn("query rejected", "kind", kind.String(), "error", err)
		return nil, err
	}

	if resp.Merged != nil {
		failed := 0
		for _, res := range resp.Merged.Data {
			if res.Failed() {
				failed++
			}
		}
		logger.Info("query answered", "domains", len(resp.Merged.Data), "failed_domains", failed)
		return resp, nil
	}

	attrs := []any{"domain", resp.Domain}
	if resp.Result != nil && resp.Result.Error != nil {
		attrs = append(attrs, "error_kind", resp.Result.Error.Kind)
	}
	logger.Info("query answered", attrs...)
	return resp, nil
}
