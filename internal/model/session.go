package model

import (
	"time"

	"aisurvey/internal/survey"
)

// SessionResponse is returned by every respondent endpoint
type SessionResponse struct {
	Token   string          `json:"token,omitempty"`
	View    survey.PageView `json:"view"`
	Warning string          `json:"warning,omitempty"`
}

// AnswersRequest carries answers for the current page. Navigation endpoints
// accept it too, saving before they move.
type AnswersRequest struct {
	Answers map[string]any `json:"answers"`
}

// ValidationErrorResponse is the 422 body for a refused answer or transition
type ValidationErrorResponse struct {
	Error    string   `json:"error"`
	Kind     string   `json:"kind"`
	Page     int      `json:"page"`
	Fields   []string `json:"fields,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// SessionEvent is pushed to researcher monitors
type SessionEvent struct {
	SessionID string    `json:"sessionId"`
	Group     string    `json:"group"`
	Page      int       `json:"page"`
	At        time.Time `json:"at"`
	Persisted *bool     `json:"persisted,omitempty"`
}

// Monitor event types
const (
	EventSessionStarted   = "session_started"
	EventPageChanged      = "page_changed"
	EventSessionSubmitted = "session_submitted"
	EventSessionRestarted = "session_restarted"
)
