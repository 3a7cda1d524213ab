package survey

import "time"

// Session is one respondent's run through the schedule.
type Session struct {
	ID          string       `json:"id"`
	Group       string       `json:"group"`
	EnteredAt   time.Time    `json:"enteredAt"`
	SubmittedAt *time.Time   `json:"submittedAt,omitempty"`
	CurrentPage int          `json:"currentPage"`
	Answers     *AnswerStore `json:"answers"`
	Ledger      *Ledger      `json:"ledger"`
}

// Submitted reports whether the session reached its terminal state.
func (s *Session) Submitted() bool {
	return s.SubmittedAt != nil
}
