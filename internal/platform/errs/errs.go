package errs

import "fmt"

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// MissingIdentifier indicates an analytics query arrived without a property ID (HTTP 400).
	MissingIdentifier
	// UndeterminedIntent indicates no domain matched the query (HTTP 422).
	UndeterminedIntent
	// InvalidPlan indicates a plan referenced fields outside the allowlists (HTTP 422).
	InvalidPlan
	// BackendFailure indicates a reporting or dataset call failed (HTTP 502).
	BackendFailure
	// Timeout indicates the request took too long (HTTP 504).
	Timeout
)

var kindNames = map[Kind]string{
	Unknown:            "unknown",
	InvalidInput:       "invalid_input",
	MissingIdentifier:  "missing_identifier",
	UndeterminedIntent: "undetermined_intent",
	InvalidPlan:        "invalid_plan",
	BackendFailure:     "backend_failure",
	Timeout:            "timeout",
}

// String returns the snake_case name used in error envelopes.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Unknown]
}

// ParseKind maps an envelope kind back to its Kind.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return Unknown
}

// AppError carries a category, user message, the originating query and the
// original cause.
type AppError struct {
	Kind    Kind
	Message string
	Query   string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}
