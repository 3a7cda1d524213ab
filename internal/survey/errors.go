package survey

import (
	"errors"
	"fmt"
	"strings"
)

// Validation error kinds. A *ValidationError unwraps to exactly one of these.
var (
	ErrMissingRequiredAnswer = errors.New("missing required answer")
	ErrConsentRequired       = errors.New("consent required")
	ErrInconsistentDecision  = errors.New("inconsistent decision")
	ErrInvalidAnswer         = errors.New("invalid answer")
)

// Navigation errors
var (
	ErrNoPredecessor    = errors.New("page has no predecessor")
	ErrTerminalPage     = errors.New("last page can only be submitted")
	ErrNotTerminal      = errors.New("submit is only allowed on the last page")
	ErrAlreadySubmitted = errors.New("session already submitted")
)

// ValidationError is returned when a page refuses an answer or a transition.
// The respondent stays on Page with every previously stored answer intact.
type ValidationError struct {
	Kind     error    `json:"-"`
	Page     int      `json:"page"`
	Fields   []string `json:"fields,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("page %d: %v", e.Page, e.Kind)
	}
	return fmt.Sprintf("page %d: %v: %s", e.Page, e.Kind, strings.Join(e.Problems, " • "))
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// KindName returns the stable identifier of the error kind, used in API responses.
func (e *ValidationError) KindName() string {
	return KindName(e.Kind)
}

// KindName maps a validation sentinel to its wire name.
func KindName(kind error) string {
	switch {
	case errors.Is(kind, ErrMissingRequiredAnswer):
		return "MissingRequiredAnswer"
	case errors.Is(kind, ErrConsentRequired):
		return "ConsentRequired"
	case errors.Is(kind, ErrInconsistentDecision):
		return "InconsistentDecision"
	case errors.Is(kind, ErrInvalidAnswer):
		return "InvalidAnswer"
	default:
		return "Unknown"
	}
}
