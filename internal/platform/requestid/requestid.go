package requestid

import (
	"context"
	"log/slog"
)

const logKey = "request_id"

type key struct{}

// NewContext returns ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key{}, id)
}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(key{}).(string)
	return id
}

// Attr returns the request ID as a log attribute.
func Attr(ctx context.Context) slog.Attr {
	return slog.String(logKey, FromContext(ctx))
}
