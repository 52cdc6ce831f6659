package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Bahjat/insight-router/internal/platform/requestid"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns a request ID to each request and echoes it in the
// response. An incoming X-Request-ID header is reused.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestid.NewContext(r.Context(), id)))
	})
}
