package queryapi

import (
	"context"

	"github.com/Bahjat/insight-router/internal/model"
)

// QueryRouter defines the contract for anything that can answer a query.
type QueryRouter interface {
	Handle(ctx context.Context, q model.Query) (*model.Response, error)
}
