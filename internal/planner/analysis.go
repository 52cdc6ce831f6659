package planner

import (
	"strings"

	"github.com/Bahjat/insight-router/internal/model"
)

// ParseAnalysis picks an audit routine for query. The first matching rule
// wins: "title"+"https", then "title", "meta", "https", else general health.
func ParseAnalysis(query string) model.AnalysisPlan {
	q := strings.ToLower(query)
	hasTitle := strings.Contains(q, "title")
	hasHTTPS := strings.Contains(q, "https")

	switch {
	case hasTitle && hasHTTPS:
		return model.AnalysisPlan{
			Type:       model.NonHTTPSLongTitles,
			Parameters: map[string]int{"title_length_threshold": 60},
		}
	case hasTitle:
		return model.AnalysisPlan{
			Type:       model.TitleAnalysis,
			Parameters: map[string]int{"length_threshold": 60},
		}
	case strings.Contains(q, "meta"):
		return model.AnalysisPlan{
			Type:       model.MetaDescriptionAnalysis,
			Parameters: map[string]int{"length_threshold": 160},
		}
	case hasHTTPS:
		return model.AnalysisPlan{Type: model.HTTPSAnalysis, Parameters: map[string]int{}}
	default:
		return model.AnalysisPlan{Type: model.GeneralSEOHealth, Parameters: map[string]int{}}
	}
}
