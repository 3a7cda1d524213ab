package survey

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// QuestionType defines how a question is answered
type QuestionType string

const (
	QuestionTypeChoice QuestionType = "CHOICE" // One of Options
	QuestionTypeLikert QuestionType = "LIKERT" // Integer in ScaleMin..ScaleMax
	QuestionTypeNumber QuestionType = "NUMBER" // Integer count in ScaleMin..ScaleMax
	QuestionTypeText   QuestionType = "TEXT"   // Free text
)

// NoPage marks a missing predecessor, or a terminal page's successor (submit).
const NoPage = -1

const maxTextLength = 4000

// Item is one row of a multi-item scale.
type Item struct {
	Label   string   `json:"label"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"` // CHOICE groups with per-item options
}

// Question is a single answer slot on a page. With Items set the answer is
// grouped (Items map keyed by item label).
type Question struct {
	Key      string       `json:"key"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Help     string       `json:"help,omitempty"`
	Options  []string     `json:"options,omitempty"`
	ScaleMin int          `json:"scaleMin,omitempty"`
	ScaleMax int          `json:"scaleMax,omitempty"`
	Default  any          `json:"default,omitempty"`
	Items    []Item       `json:"items,omitempty"`
}

// Grouped reports whether the question stores an Items map.
func (q Question) Grouped() bool {
	return len(q.Items) > 0
}

// Item returns the item with the given label.
func (q Question) Item(label string) (Item, bool) {
	for _, it := range q.Items {
		if it.Label == label {
			return it, true
		}
	}
	return Item{}, false
}

// Labels returns item labels in declaration order.
func (q Question) Labels() []string {
	out := make([]string, len(q.Items))
	for i, it := range q.Items {
		out[i] = it.Label
	}
	return out
}

// acceptsScalar checks a single (ungrouped or item) value. nil clears an answer.
func (q Question) acceptsScalar(v any, options []string) error {
	if v == nil {
		return nil
	}
	switch q.Type {
	case QuestionTypeChoice:
		s, ok := v.(string)
		if !ok || !slices.Contains(options, s) {
			return fmt.Errorf("%v is not one of %v", v, options)
		}
	case QuestionTypeLikert, QuestionTypeNumber:
		n, ok := asInt(v)
		if !ok || n < q.ScaleMin || n > q.ScaleMax {
			return fmt.Errorf("%v is outside %d..%d", v, q.ScaleMin, q.ScaleMax)
		}
	case QuestionTypeText:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%v is not text", v)
		}
		if utf8.RuneCountInString(s) > maxTextLength {
			return fmt.Errorf("text longer than %d characters", maxTextLength)
		}
	}
	return nil
}

// Accepts validates a full answer value for the question.
func (q Question) Accepts(v any) error {
	if !q.Grouped() {
		if _, isMap := v.(Items); isMap {
			return fmt.Errorf("%s expects a single value", q.Key)
		}
		if err := q.acceptsScalar(v, q.Options); err != nil {
			return fmt.Errorf("%s: %w", q.Key, err)
		}
		return nil
	}
	if v == nil {
		return nil
	}
	items, ok := v.(Items)
	if !ok {
		return fmt.Errorf("%s expects one value per item", q.Key)
	}
	for label, iv := range items {
		it, ok := q.Item(label)
		if !ok {
			return fmt.Errorf("%s: unknown item %q", q.Key, label)
		}
		opts := it.Options
		if len(opts) == 0 {
			opts = q.Options
		}
		if err := q.acceptsScalar(iv, opts); err != nil {
			return fmt.Errorf("%s.%s: %w", q.Key, label, err)
		}
	}
	return nil
}

// Offer is one travel offer shown on an offer page.
type Offer struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Image   string `json:"image"`
	Caption string `json:"caption"`
}

// Rule is an extra page-level check run after the required-key check.
type Rule func(answers *AnswerStore) *ValidationError

// Page is an immutable schedule entry.
type Page struct {
	Index      int        `json:"index"`
	Key        string     `json:"key"`
	Title      string     `json:"title"`
	Intro      []string   `json:"intro,omitempty"`
	Offer      *Offer     `json:"offer,omitempty"`
	Questions  []Question `json:"questions,omitempty"`
	Required   []string   `json:"required,omitempty"`
	ConsentKey string     `json:"-"`
	Prev       int        `json:"prev"`
	Next       int        `json:"next"`
	Rules      []Rule     `json:"-"`
}

// Terminal reports whether the page ends the survey with a submit.
func (p Page) Terminal() bool {
	return p.Next == NoPage
}

// Question returns the question with the given key.
func (p Page) Question(key string) (Question, bool) {
	for _, q := range p.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

// Schedule is the fixed ordered list of pages.
type Schedule struct {
	pages []Page
}

// NewSchedule validates pages and builds a schedule. Indices must be 0..n-1 in
// order, links must point inside the schedule, exactly the last page may be
// terminal, and required keys must be declared on their page.
func NewSchedule(pages []Page) (*Schedule, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("schedule has no pages")
	}
	for i, p := range pages {
		if p.Index != i {
			return nil, fmt.Errorf("page %q has index %d, want %d", p.Key, p.Index, i)
		}
		if p.Prev != NoPage && (p.Prev < 0 || p.Prev >= len(pages)) {
			return nil, fmt.Errorf("page %d: predecessor %d out of range", i, p.Prev)
		}
		if i == 0 && p.Prev != NoPage {
			return nil, fmt.Errorf("first page cannot have a predecessor")
		}
		if p.Terminal() != (i == len(pages)-1) {
			return nil, fmt.Errorf("page %d: only the last page submits", i)
		}
		if !p.Terminal() && (p.Next <= 0 || p.Next >= len(pages)) {
			return nil, fmt.Errorf("page %d: successor %d out of range", i, p.Next)
		}
		for _, key := range p.Required {
			if _, ok := p.Question(key); !ok {
				return nil, fmt.Errorf("page %d: required key %q is not a question on the page", i, key)
			}
		}
		if p.ConsentKey != "" {
			if _, ok := p.Question(p.ConsentKey); !ok {
				return nil, fmt.Errorf("page %d: consent key %q is not a question on the page", i, p.ConsentKey)
			}
		}
	}
	return &Schedule{pages: slices.Clone(pages)}, nil
}

// MustSchedule is like NewSchedule but panics on an invalid definition.
func MustSchedule(pages []Page) *Schedule {
	s, err := NewSchedule(pages)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of pages
func (s *Schedule) Len() int {
	return len(s.pages)
}

// Last returns the index of the terminal page
func (s *Schedule) Last() int {
	return len(s.pages) - 1
}

// Page returns the descriptor at index.
func (s *Schedule) Page(index int) (Page, bool) {
	if index < 0 || index >= len(s.pages) {
		return Page{}, false
	}
	return s.pages[index], true
}

// Pages returns every page in order.
func (s *Schedule) Pages() []Page {
	return slices.Clone(s.pages)
}

// Question finds a question by key. When several pages declare the same key,
// the last one wins, matching the answer store's overwrite semantics.
func (s *Schedule) Question(key string) (Question, bool) {
	for i := len(s.pages) - 1; i >= 0; i-- {
		if q, ok := s.pages[i].Question(key); ok {
			return q, true
		}
	}
	return Question{}, false
}
