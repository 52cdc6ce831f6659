package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Bahjat/insight-router/internal/llm"
	"github.com/Bahjat/insight-router/internal/model"
)

// ErrMalformedPlan is returned when the model's reply is not a usable plan.
var ErrMalformedPlan = errors.New("malformed plan")

const promptTemplate = `You are a GA4 analytics query planner. Convert the natural language query into a structured plan.

Return STRICT JSON only with these fields:
- "metrics": Array of GA4 metric names (e.g., ["sessions", "totalUsers"])
- "dimensions": Array of GA4 dimension names (e.g., ["date", "pagePath"])
- "date_range": String like "last_7_days", "last_30_days", etc.
- "filters": Optional object with dimension filters (e.g., {"pagePath": "/contact"})

Use these GA4 API names for metrics:
- sessions, totalUsers, screenPageViews, activeUsers, newUsers, bounceRate

Use these GA4 API names for dimensions:
- date, pagePath, pageTitle, sessionSource, sessionMedium, country, deviceCategory

Query: %s

Example output:
{"metrics": ["sessions", "screenPageViews"], "dimensions": ["date", "pagePath"], "date_range": "last_7_days"}
`

const planSchema = `{
	"type": "object",
	"properties": {
		"metrics":    {"type": "array", "items": {"type": "string"}},
		"dimensions": {"type": "array", "items": {"type": "string"}},
		"date_range": {"type": "string"},
		"filters":    {"type": ["object", "null"]}
	}
}`

var compiledPlanSchema = mustCompileSchema(planSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("planner: compile plan schema: %v", err))
	}
	return schema
}

// ModelPlanner asks a language model for a plan. The reply is untrusted: it
// is shape-checked against a JSON schema here and allowlist-checked later.
type ModelPlanner struct {
	completer llm.Completer
}

// NewModelPlanner returns a ModelPlanner backed by completer.
func NewModelPlanner(completer llm.Completer) *ModelPlanner {
	return &ModelPlanner{completer: completer}
}

// Plan implements Planner.
func (p *ModelPlanner) Plan(ctx context.Context, query string) (model.QueryPlan, error) {
	reply, err := p.completer.Complete(ctx, fmt.Sprintf(promptTemplate, query))
	if err != nil {
		return model.QueryPlan{}, err
	}
	return decodePlan(reply)
}

type rawPlan struct {
	Metrics    *[]string      `json:"metrics"`
	Dimensions *[]string      `json:"dimensions"`
	DateRange  *string        `json:"date_range"`
	Filters    map[string]any `json:"filters"`
}

func decodePlan(reply string) (model.QueryPlan, error) {
	doc := stripCodeFence(reply)

	result, err := compiledPlanSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return model.QueryPlan{}, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			problems[i] = desc.String()
		}
		return model.QueryPlan{}, fmt.Errorf("%w: %s", ErrMalformedPlan, strings.Join(problems, "; "))
	}

	var raw rawPlan
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return model.QueryPlan{}, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	plan := model.QueryPlan{
		Metrics:    []string{"sessions"},
		Dimensions: []string{"date"},
		DateRange:  "last_7_days",
		Filters:    raw.Filters,
	}
	if raw.Metrics != nil {
		plan.Metrics = *raw.Metrics
	}
	if raw.Dimensions != nil {
		plan.Dimensions = *raw.Dimensions
	}
	if raw.DateRange != nil {
		plan.DateRange = *raw.DateRange
	}
	return plan, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
