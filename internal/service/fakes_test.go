package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"aisurvey/internal/cache"
	"aisurvey/internal/config"
	"aisurvey/internal/repository"
	"aisurvey/internal/survey"
)

type fakeSessionCache struct {
	mu       sync.Mutex
	sessions map[string][]byte
	locked   map[string]bool
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{sessions: map[string][]byte{}, locked: map[string]bool{}}
}

// Set round-trips through JSON like the Redis cache does.
func (c *fakeSessionCache) Set(_ context.Context, s *survey.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = data
	return nil
}

func (c *fakeSessionCache) Get(_ context.Context, id string) (*survey.Session, error) {
	c.mu.Lock()
	data, ok := c.sessions[id]
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var s survey.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *fakeSessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

func (c *fakeSessionCache) Lock(_ context.Context, id string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked[id] {
		return nil, cache.ErrLocked
	}
	c.locked[id] = true
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.locked, id)
	}, nil
}

type fakeProgress struct {
	mu        sync.Mutex
	pages     map[string]int
	completed int64
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{pages: map[string]int{}}
}

func (p *fakeProgress) SetPage(_ context.Context, id string, page int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[id] = page
	return nil
}

func (p *fakeProgress) Remove(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pages, id)
	return nil
}

func (p *fakeProgress) MarkCompleted(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pages, id)
	p.completed++
	return nil
}

func (p *fakeProgress) Snapshot(context.Context) (*cache.Progress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := &cache.Progress{ActiveByPage: map[int]int{}, Active: len(p.pages), Completed: p.completed}
	for _, page := range p.pages {
		out.ActiveByPage[page]++
	}
	return out, nil
}

type fakeStore struct {
	mu      sync.Mutex
	records []survey.Record
	err     error
}

func (s *fakeStore) Append(_ context.Context, rec survey.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) Exists(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records) > 0, nil
}

func (s *fakeStore) ReadAll(context.Context) (*repository.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	t := &repository.Table{Columns: []string{}, Rows: [][]string{}}
	for _, rec := range s.records {
		t.AddRow(rec.Columns, rec.Cells())
	}
	return t, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []survey.Record
	err    error
	delay  time.Duration
	closed bool
}

func (n *fakeNotifier) Notify(_ context.Context, rec survey.Record) error {
	time.Sleep(n.delay)
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, rec)
	return n.err
}

func (n *fakeNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type event struct {
	Type    string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []event
}

func (b *fakeBroadcaster) BroadcastToMonitors(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event{Type: msgType, Payload: payload})
}

func (b *fakeBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

var errBoom = errors.New("boom")

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:          "test-secret",
		ResearcherUsername: "kutato",
		ResearcherPassword: "jelszo",
		ResearcherTokenTTL: time.Hour,
		RespondentTokenTTL: time.Hour,
	}
}

type harness struct {
	svc         *SessionService
	sessions    *fakeSessionCache
	progress    *fakeProgress
	store       *fakeStore
	notifier    *fakeNotifier
	broadcaster *fakeBroadcaster
	auth        *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		sessions:    newFakeSessionCache(),
		progress:    newFakeProgress(),
		store:       &fakeStore{},
		notifier:    &fakeNotifier{},
		broadcaster: &fakeBroadcaster{},
		auth:        NewAuthService(testAuthConfig()),
	}
	controller := survey.NewController(survey.Study(), survey.WithRand(rand.New(rand.NewPCG(7, 7))))
	h.svc = NewSessionService(controller, h.sessions, h.progress, h.store, h.notifier, h.auth)
	h.svc.SetBroadcaster(h.broadcaster)
	return h
}

// validAnswers answers every question of page with its first allowed value,
// or the top of a count range.
func validAnswers(p survey.Page) map[string]any {
	pick := func(q survey.Question, options []string) any {
		if len(options) == 0 {
			options = q.Options
		}
		switch q.Type {
		case survey.QuestionTypeChoice:
			return options[0]
		case survey.QuestionTypeNumber:
			return q.ScaleMax
		case survey.QuestionTypeLikert:
			return q.ScaleMin
		default:
			return "vélemény"
		}
	}
	out := map[string]any{}
	for _, q := range p.Questions {
		if !q.Grouped() {
			out[q.Key] = pick(q, nil)
			continue
		}
		items := map[string]any{}
		for _, it := range q.Items {
			items[it.Label] = pick(q, it.Options)
		}
		out[q.Key] = items
	}
	return out
}
