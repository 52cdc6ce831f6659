package model

// Query is a single natural-language question and the optional analytics
// property it targets.
type Query struct {
	Text       string
	PropertyID string
}

// QueryPlan is the structured analytics request derived from a query.
type QueryPlan struct {
	Metrics    []string       `json:"metrics"`
	Dimensions []string       `json:"dimensions"`
	DateRange  string         `json:"date_range"`
	Filters    map[string]any `json:"filters,omitempty"`
}

// Clone returns a deep copy of the plan's slices and filter map.
func (p QueryPlan) Clone() QueryPlan {
	out := QueryPlan{
		Metrics:    append([]string(nil), p.Metrics...),
		Dimensions: append([]string(nil), p.Dimensions...),
		DateRange:  p.DateRange,
	}
	if p.Filters != nil {
		out.Filters = make(map[string]any, len(p.Filters))
		for k, v := range p.Filters {
			out.Filters[k] = v
		}
	}
	return out
}

// AnalysisType names one of the fixed audit routines.
type AnalysisType string

const (
	NonHTTPSLongTitles      AnalysisType = "non_https_long_titles"
	TitleAnalysis           AnalysisType = "title_analysis"
	MetaDescriptionAnalysis AnalysisType = "meta_description_analysis"
	HTTPSAnalysis           AnalysisType = "https_analysis"
	GeneralSEOHealth        AnalysisType = "general_seo_health"
)

// AnalysisPlan selects an audit routine and its thresholds.
type AnalysisPlan struct {
	Type       AnalysisType   `json:"analysis_type"`
	Parameters map[string]int `json:"parameters"`
}

// Param returns the named parameter or def when it is not set.
func (p AnalysisPlan) Param(name string, def int) int {
	if v, ok := p.Parameters[name]; ok {
		return v
	}
	return def
}
