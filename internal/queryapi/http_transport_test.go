package queryapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/platform/errs"
)

// mockRouter implements QueryRouter for testing.
type mockRouter struct {
	resp     *model.Response
	err      error
	received model.Query
}

func (m *mockRouter) Handle(_ context.Context, q model.Query) (*model.Response, error) {
	m.received = q
	return m.resp, m.err
}

func newTestRouter(qr QueryRouter) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transport := NewTransport(NewService(qr, logger), logger)
	r := chi.NewRouter()
	transport.RegisterRoutes(r)
	return r
}

func postQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorEnvelope {
	t.Helper()
	var env model.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return env
}

func TestHandleQuery_Report(t *testing.T) {
	mr := &mockRouter{resp: &model.Response{
		Domain: "analytics",
		Result: &model.DomainResult{Analytics: &model.AnalyticsReport{Summary: "GA4 analytics report", TotalRows: 7}},
	}}

	rec := postQuery(t, newTestRouter(mr), `{"query": "sessions last week", "propertyId": "123"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var report model.AnalyticsReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if report.TotalRows != 7 {
		t.Errorf("TotalRows = %d, want 7", report.TotalRows)
	}
	if mr.received != (model.Query{Text: "sessions last week", PropertyID: "123"}) {
		t.Errorf("router received %+v", mr.received)
	}
}

func TestHandleQuery_Merged(t *testing.T) {
	mr := &mockRouter{resp: &model.Response{Merged: &model.MergedResponse{
		Query:    "q",
		Summary:  "Combined analytics and SEO insights",
		Insights: []string{"a"},
		Data: map[string]model.DomainResult{
			"analytics": {Error: &model.ErrorEnvelope{Error: "boom", Kind: "backend_failure"}},
			"seo":       {SEO: &model.SEOReport{Summary: "ok", AnalysisType: model.HTTPSAnalysis}},
		},
	}}}

	rec := postQuery(t, newTestRouter(mr), `{"query": "q", "propertyId": "1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		Data map[string]map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data["analytics"]["kind"] != "backend_failure" {
		t.Errorf("analytics = %v", body.Data["analytics"])
	}
	if body.Data["seo"]["analysis_type"] != "https_analysis" {
		t.Errorf("seo = %v", body.Data["seo"])
	}
}

func TestHandleQuery_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "not json", body: "query=sessions"},
		{name: "empty query", body: `{"query": ""}`},
		{name: "blank query", body: `{"query": "   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postQuery(t, newTestRouter(&mockRouter{}), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if env := decodeEnvelope(t, rec); env.Kind != "invalid_input" {
				t.Errorf("kind = %q, want invalid_input", env.Kind)
			}
		})
	}
}

func TestHandleQuery_RouterErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "missing identifier",
			err:        &errs.AppError{Kind: errs.MissingIdentifier, Message: "propertyId is required for GA4 analytics queries", Query: "page views"},
			wantStatus: http.StatusBadRequest,
			wantKind:   "missing_identifier",
		},
		{
			name:       "undetermined intent",
			err:        &errs.AppError{Kind: errs.UndeterminedIntent, Message: "Could not determine query intent.", Query: "hello"},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "undetermined_intent",
		},
		{
			name:       "timeout",
			err:        &errs.AppError{Kind: errs.Timeout, Message: "slow", Cause: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
			wantKind:   "timeout",
		},
		{
			name:       "plain error",
			err:        errors.New("unexpected"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postQuery(t, newTestRouter(&mockRouter{err: tt.err}), `{"query": "anything"}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			env := decodeEnvelope(t, rec)
			if env.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", env.Kind, tt.wantKind)
			}
			if tt.wantKind == "undetermined_intent" && len(env.SupportedIntents) != 2 {
				t.Errorf("supported intents = %v", env.SupportedIntents)
			}
		})
	}
}

func TestHandleQuery_SingleDomainEnvelopeStatus(t *testing.T) {
	tests := []struct {
		kind       string
		wantStatus int
	}{
		{kind: "invalid_plan", wantStatus: http.StatusUnprocessableEntity},
		{kind: "backend_failure", wantStatus: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			mr := &mockRouter{resp: &model.Response{
				Domain: "analytics",
				Result: &model.DomainResult{Error: &model.ErrorEnvelope{Error: "x", Kind: tt.kind, AllowedMetrics: []string{"sessions"}}},
			}}

			rec := postQuery(t, newTestRouter(mr), `{"query": "q", "propertyId": "1"}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if env := decodeEnvelope(t, rec); env.Kind != tt.kind {
				t.Errorf("kind = %q, want %q", env.Kind, tt.kind)
			}
		})
	}
}

func TestHandleHealthAndRoot(t *testing.T) {
	h := newTestRouter(&mockRouter{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	var health map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&health)
	if health["status"] != "healthy" || health["service"] != "insight-router" {
		t.Errorf("health = %v", health)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "POST /query") {
		t.Errorf("root = %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&mockRouter{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output is missing default collectors")
	}
}
