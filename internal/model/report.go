package model

import (
	"encoding/json"
	"errors"
)

var errEmptyResult = errors.New("model: domain result has no value")

// ResultRow is one backend row keyed by the plan's dimension and metric names.
type ResultRow struct {
	Dimensions map[string]string `json:"dimensions"`
	Metrics    map[string]string `json:"metrics"`
}

// AnalyticsReport is the analytics agent's successful answer. NoData marks
// the distinguished empty-result report.
type AnalyticsReport struct {
	Summary         string      `json:"summary"`
	Query           string      `json:"query,omitempty"`
	PropertyID      string      `json:"property_id,omitempty"`
	Metrics         []string    `json:"metrics"`
	Dimensions      []string    `json:"dimensions"`
	DateRange       string      `json:"date_range"`
	Rows            []ResultRow `json:"rows"`
	TotalRows       int         `json:"total_rows"`
	NoData          bool        `json:"no_data,omitempty"`
	Message         string      `json:"message,omitempty"`
	PossibleReasons []string    `json:"possible_reasons,omitempty"`
	Suggestions     []string    `json:"suggestions,omitempty"`
}

// Finding is a page that violates every condition of a combined check.
type Finding struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	TitleLength int      `json:"title_length"`
	Issues      []string `json:"issues"`
}

// Issue is a single audit problem, optionally tied to a page.
type Issue struct {
	URL             string `json:"url,omitempty"`
	Title           string `json:"title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	Length          int    `json:"length,omitempty"`
	Issue           string `json:"issue"`
	Recommendation  string `json:"recommendation,omitempty"`
}

// SEOReport is the audit agent's answer. When a routine cannot run because
// the dataset lacks a column, Error and AvailableColumns are set instead of
// the statistics.
type SEOReport struct {
	Summary            string         `json:"summary,omitempty"`
	Query              string         `json:"query,omitempty"`
	AnalysisType       AnalysisType   `json:"analysis_type"`
	TotalIssues        int            `json:"total_issues,omitempty"`
	Findings           []Finding      `json:"findings,omitempty"`
	Statistics         map[string]any `json:"statistics,omitempty"`
	Issues             []Issue        `json:"issues,omitempty"`
	HealthScore        *int           `json:"health_score,omitempty"`
	TotalPagesAnalyzed int            `json:"total_pages_analyzed,omitempty"`
	Recommendations    []string       `json:"recommendations,omitempty"`
	Error              string         `json:"error,omitempty"`
	AvailableColumns   []string       `json:"available_columns,omitempty"`
}

// ErrorEnvelope is the JSON shape of every surfaced failure.
type ErrorEnvelope struct {
	Error             string   `json:"error"`
	Kind              string   `json:"kind"`
	Query             string   `json:"query,omitempty"`
	PropertyID        string   `json:"property_id,omitempty"`
	InvalidMetrics    []string `json:"invalid_metrics,omitempty"`
	InvalidDimensions []string `json:"invalid_dimensions,omitempty"`
	InvalidFilters    []string `json:"invalid_filters,omitempty"`
	AllowedMetrics    []string `json:"allowed_metrics,omitempty"`
	AllowedDimensions []string `json:"allowed_dimensions,omitempty"`
	SupportedIntents  []string `json:"supported_intents,omitempty"`
}

// DomainResult holds exactly one of an analytics report, an audit report or
// an error envelope.
type DomainResult struct {
	Analytics *AnalyticsReport
	SEO       *SEOReport
	Error     *ErrorEnvelope
}

// Failed reports whether the domain produced an error envelope or an audit
// report that could not run.
func (r DomainResult) Failed() bool {
	return r.Error != nil || (r.SEO != nil && r.SEO.Error != "")
}

// MarshalJSON encodes whichever value is set.
func (r DomainResult) MarshalJSON() ([]byte, error) {
	switch {
	case r.Error != nil:
		return json.Marshal(r.Error)
	case r.Analytics != nil:
		return json.Marshal(r.Analytics)
	case r.SEO != nil:
		return json.Marshal(r.SEO)
	}
	return nil, errEmptyResult
}

// MergedResponse combines the results of every domain a query touched.
type MergedResponse struct {
	Query    string                  `json:"query"`
	Summary  string                  `json:"summary"`
	Insights []string                `json:"insights"`
	Data     map[string]DomainResult `json:"data"`
}

// Response is the router's answer: a single domain result or a merged one.
type Response struct {
	Domain string
	Result *DomainResult
	Merged *MergedResponse
}

// MarshalJSON encodes the merged response when present, else the single result.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Merged != nil {
		return json.Marshal(r.Merged)
	}
	if r.Result != nil {
		return json.Marshal(*r.Result)
	}
	return nil, errEmptyResult
}
