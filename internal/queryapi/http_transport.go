package queryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bahjat/insight-router/internal/intent"
	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/platform/errs"
)

const (
	queryTimeout   = 60 * time.Second
	serviceName    = "insight-router"
	serviceVersion = "1.0.0"
)

var errQueryRequired = errors.New("the \"query\" field is required")

// Transport handles HTTP requests for the query API.
type Transport struct {
	service *Service
	logger  *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given service.
func NewTransport(service *Service, logger *slog.Logger) *Transport {
	return &Transport{service: service, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to r.
func (t *Transport) RegisterRoutes(r chi.Router) {
	r.Post("/query", t.handleQuery)
	r.Get("/health", t.handleHealth)
	r.Get("/", t.handleRoot)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

type queryRequest struct {
	Query      string `json:"query"`
	PropertyID string `json:"propertyId"`
}

func (r queryRequest) validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errQueryRequired
	}
	return nil
}

func (t *Transport) handleQuery(w http.ResponseWriter, r *http.Request) {
	const maxRequestBody = 1 << 20 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.renderError(w, http.StatusBadRequest, &model.ErrorEnvelope{
			Error: "Invalid request body. Please send a JSON object with a \"query\" field.",
			Kind:  errs.InvalidInput.String(),
		})
		return
	}

	if err := req.validate(); err != nil {
		t.renderError(w, http.StatusBadRequest, &model.ErrorEnvelope{
			Error: err.Error(),
			Kind:  errs.InvalidInput.String(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	resp, err := t.service.Query(ctx, model.Query{Text: req.Query, PropertyID: req.PropertyID})
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	t.renderJSON(w, responseStatus(resp), resp)
}

// responseStatus is 200 for reports and merged responses. A lone error
// envelope takes the status of its kind.
func responseStatus(resp *model.Response) int {
	if resp.Merged != nil || resp.Result == nil || resp.Result.Error == nil {
		return http.StatusOK
	}
	return kindStatus(errs.ParseKind(resp.Result.Error.Kind))
}

func kindStatus(kind errs.Kind) int {
	switch kind {
	case errs.InvalidInput, errs.MissingIdentifier:
		return http.StatusBadRequest
	case errs.UndeterminedIntent, errs.InvalidPlan:
		return http.StatusUnprocessableEntity
	case errs.BackendFailure:
		return http.StatusBadGateway
	case errs.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if !errors.As(err, &appErr) {
		t.renderError(w, http.StatusInternalServerError, &model.ErrorEnvelope{
			Error: "An unexpected error occurred.",
			Kind:  errs.Unknown.String(),
		})
		return
	}

	env := &model.ErrorEnvelope{
		Error: appErr.Message,
		Kind:  appErr.Kind.String(),
		Query: appErr.Query,
	}
	if appErr.Kind == errs.UndeterminedIntent {
		env.SupportedIntents = intent.Supported()
	}
	t.renderError(w, kindStatus(appErr.Kind), env)
}

func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

func (t *Transport) handleRoot(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]any{
		"service": serviceName,
		"version": serviceVersion,
		"endpoints": map[string]string{
			"query":   "POST /query - Main query handler",
			"health":  "GET /health - Health check",
			"metrics": "GET /metrics - Prometheus metrics",
		},
	})
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, env *model.ErrorEnvelope) {
	t.renderJSON(w, status, env)
}
