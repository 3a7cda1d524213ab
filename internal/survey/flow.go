package survey

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Controller drives sessions through a schedule. It holds no per-session
// state; callers serialize actions on a given session.
type Controller struct {
	schedule *Schedule
	now      func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRand sets the source used for group assignment.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rnd = r }
}

func NewController(schedule *Schedule, opts ...Option) *Controller {
	c := &Controller{
		schedule: schedule,
		now:      time.Now,
		rnd:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schedule returns the schedule the controller runs.
func (c *Controller) Schedule() *Schedule {
	return c.schedule
}

func (c *Controller) pickGroup() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Groups[c.rnd.IntN(len(Groups))]
}

// NewSession creates a fresh session on page 0 and records its entry.
func (c *Controller) NewSession() *Session {
	now := c.now()
	s := &Session{
		ID:          uuid.New().String(),
		Group:       c.pickGroup(),
		EnteredAt:   now,
		CurrentPage: 0,
		Answers:     NewAnswerStore(),
		Ledger:      NewLedger(),
	}
	s.Ledger.RecordEntry(0, now)
	return s
}

// Restart discards the given session and returns a new one.
func (c *Controller) Restart(_ *Session) *Session {
	return c.NewSession()
}

func (c *Controller) currentPage(s *Session) (Page, error) {
	if s.Submitted() {
		return Page{}, ErrAlreadySubmitted
	}
	p, ok := c.schedule.Page(s.CurrentPage)
	if !ok {
		return Page{}, fmt.Errorf("session %s is on unknown page %d", s.ID, s.CurrentPage)
	}
	return p, nil
}

func invalidAnswer(page int, key, problem string) *ValidationError {
	return &ValidationError{
		Kind:     ErrInvalidAnswer,
		Page:     page,
		Fields:   []string{key},
		Problems: []string{problem},
	}
}

func (c *Controller) checkAnswer(p Page, key string, value any) (any, error) {
	q, ok := p.Question(key)
	if !ok {
		return nil, invalidAnswer(p.Index, key, fmt.Sprintf("Ismeretlen kérdés ezen az oldalon: %s", key))
	}
	v := normalizeValue(value)
	if err := q.Accepts(v); err != nil {
		return nil, invalidAnswer(p.Index, key, err.Error())
	}
	return v, nil
}

// Answer stores one answer for a question on the current page.
func (c *Controller) Answer(s *Session, key string, value any) error {
	p, err := c.currentPage(s)
	if err != nil {
		return err
	}
	v, err := c.checkAnswer(p, key, value)
	if err != nil {
		return err
	}
	s.Answers.Set(key, v)
	return nil
}

// AnswerAll validates every answer first and stores them only if all pass.
// Keys are written in the page's question order.
func (c *Controller) AnswerAll(s *Session, answers map[string]any) error {
	p, err := c.currentPage(s)
	if err != nil {
		return err
	}
	checked := make(map[string]any, len(answers))
	for key, value := range answers {
		v, err := c.checkAnswer(p, key, value)
		if err != nil {
			return err
		}
		checked[key] = v
	}
	for _, q := range p.Questions {
		if v, ok := checked[q.Key]; ok {
			s.Answers.Set(q.Key, v)
		}
	}
	return nil
}

// Validate runs the current page's checks: consent, required keys, then rules.
func (c *Controller) Validate(s *Session) error {
	p, err := c.currentPage(s)
	if err != nil {
		return err
	}
	return c.validatePage(p, s.Answers)
}

func (c *Controller) validatePage(p Page, answers *AnswerStore) error {
	if p.ConsentKey != "" {
		if v, _ := answers.Get(p.ConsentKey); v != ConsentYes {
			return &ValidationError{
				Kind:     ErrConsentRequired,
				Page:     p.Index,
				Fields:   []string{p.ConsentKey},
				Problems: []string{"A folytatáshoz el kell fogadnia a hozzájárulást."},
			}
		}
	}

	var fields, problems []string
	for _, key := range p.Required {
		q, _ := p.Question(key)
		if !answered(q, answers) {
			fields = append(fields, key)
			problems = append(problems, fmt.Sprintf("Kérjük, válaszoljon: %s", q.Prompt))
		}
	}
	if len(fields) > 0 {
		return &ValidationError{
			Kind:     ErrMissingRequiredAnswer,
			Page:     p.Index,
			Fields:   fields,
			Problems: problems,
		}
	}

	for _, rule := range p.Rules {
		if verr := rule(answers); verr != nil {
			verr.Page = p.Index
			return verr
		}
	}
	return nil
}

// answered reports whether q has a non-null answer, and for grouped
// questions a non-null value for every declared item.
func answered(q Question, answers *AnswerStore) bool {
	v, ok := answers.Get(q.Key)
	if !ok || blank(v) {
		return false
	}
	if !q.Grouped() {
		return true
	}
	items, ok := v.(Items)
	if !ok {
		return false
	}
	for _, label := range q.Labels() {
		if blank(items[label]) {
			return false
		}
	}
	return true
}

func (c *Controller) move(s *Session, to int) {
	now := c.now()
	s.Ledger.RecordExit(s.CurrentPage, now)
	s.CurrentPage = to
	s.Ledger.RecordEntry(to, now)
}

// Next validates the current page and advances to its successor.
// The terminal page is left with Submit instead.
func (c *Controller) Next(s *Session) error {
	p, err := c.currentPage(s)
	if err != nil {
		return err
	}
	if p.Terminal() {
		return ErrTerminalPage
	}
	if err := c.validatePage(p, s.Answers); err != nil {
		return err
	}
	c.move(s, p.Next)
	return nil
}

// Back returns to the predecessor without validating. Answers are kept.
func (c *Controller) Back(s *Session) error {
	p, err := c.currentPage(s)
	if err != nil {
		return err
	}
	if p.Prev == NoPage {
		return ErrNoPredecessor
	}
	c.move(s, p.Prev)
	return nil
}

// Submit validates the terminal page, closes its visit, marks the session
// submitted and flattens it.
func (c *Controller) Submit(s *Session) (Record, error) {
	p, err := c.currentPage(s)
	if err != nil {
		return Record{}, err
	}
	if !p.Terminal() {
		return Record{}, ErrNotTerminal
	}
	if err := c.validatePage(p, s.Answers); err != nil {
		return Record{}, err
	}
	now := c.now()
	s.Ledger.RecordExit(p.Index, now)
	s.SubmittedAt = &now
	return Flatten(s, c.schedule), nil
}
