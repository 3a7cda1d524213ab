package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aisurvey/internal/cache"
	"aisurvey/internal/config"
	"aisurvey/internal/model"
	"aisurvey/internal/notify"
	"aisurvey/internal/repository"
	"aisurvey/internal/service"
	"aisurvey/internal/survey"
	"aisurvey/internal/transport/rest/middleware"
	"aisurvey/internal/transport/ws"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func (c *memSessions) Set(_ context.Context, s *survey.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = data
	return nil
}

func (c *memSessions) Get(_ context.Context, id string) (*survey.Session, error) {
	c.mu.Lock()
	data, ok := c.sessions[id]
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var s survey.Session
	return &s, json.Unmarshal(data, &s)
}

func (c *memSessions) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

func (c *memSessions) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

type memProgress struct {
	mu        sync.Mutex
	pages     map[string]int
	completed int64
}

func (p *memProgress) SetPage(_ context.Context, id string, page int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages[id] = page
	return nil
}

func (p *memProgress) Remove(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pages, id)
	return nil
}

func (p *memProgress) MarkCompleted(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pages, id)
	p.completed++
	return nil
}

func (p *memProgress) Snapshot(context.Context) (*cache.Progress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := &cache.Progress{ActiveByPage: map[int]int{}, Active: len(p.pages), Completed: p.completed}
	for _, page := range p.pages {
		out.ActiveByPage[page]++
	}
	return out, nil
}

type testServer struct {
	handler  http.Handler
	schedule *survey.Schedule
}

func newTestServer(t *testing.T, maxRequests int) *testServer {
	t.Helper()
	authSvc := service.NewAuthService(config.AuthConfig{
		JWTSecret:          "router-test-secret",
		ResearcherUsername: "kutato",
		ResearcherPassword: "jelszo",
		ResearcherTokenTTL: time.Hour,
		RespondentTokenTTL: time.Hour,
	})
	store := repository.NewCSVStore(filepath.Join(t.TempDir(), "responses.csv"))
	progress := &memProgress{pages: map[string]int{}}
	controller := survey.NewController(survey.Study(), survey.WithRand(rand.New(rand.NewPCG(1, 2))))

	sessionSvc := service.NewSessionService(controller,
		&memSessions{sessions: map[string][]byte{}}, progress, store, notify.NewNop(), authSvc)
	hub := ws.NewHub()
	sessionSvc.SetBroadcaster(hub)
	limiter := middleware.NewRateLimiter(maxRequests, time.Hour)
	t.Cleanup(func() {
		sessionSvc.Close()
		hub.Close()
		limiter.Stop()
	})

	return &testServer{
		schedule: controller.Schedule(),
		handler: NewRouter(&Container{
			AuthService:     authSvc,
			SessionService:  sessionSvc,
			ResponseService: service.NewResponseService(store),
			Progress:        progress,
			WSHub:           hub,
			RateLimiter:     limiter,
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "198.51.100.1:4000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func answersFor(p survey.Page) map[string]any {
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

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, 10)
	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Preflight(t *testing.T) {
	s := newTestServer(t, 10)
	rec := s.do(t, http.MethodOptions, "/v1/sessions/current/next", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RespondentNeedsToken(t *testing.T) {
	s := newTestServer(t, 10)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/sessions/current", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/sessions/current", "garbage", nil).Code)
}

func TestRouter_Navigation(t *testing.T) {
	s := newTestServer(t, 10)

	rec := s.do(t, http.MethodPost, "/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	started := decode[model.SessionResponse](t, rec)
	token := started.Token
	require.NotEmpty(t, token)
	assert.Equal(t, 0, started.View.Index)

	rec = s.do(t, http.MethodPost, "/v1/sessions/current/next", token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	verr := decode[model.ValidationErrorResponse](t, rec)
	assert.Equal(t, "ConsentRequired", verr.Kind)
	assert.Equal(t, 0, verr.Page)

	rec = s.do(t, http.MethodPut, "/v1/sessions/current/answers", token,
		model.AnswersRequest{Answers: map[string]any{"consent": survey.ConsentYes}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/sessions/current/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[model.SessionResponse](t, rec).View.Index)

	rec = s.do(t, http.MethodPost, "/v1/sessions/current/back", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	back := decode[model.SessionResponse](t, rec)
	assert.Equal(t, 0, back.View.Index)
	assert.Equal(t, survey.ConsentYes, back.View.Answers["consent"])

	rec = s.do(t, http.MethodPost, "/v1/sessions/current/back", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPut, "/v1/sessions/current/answers", token,
		model.AnswersRequest{Answers: map[string]any{"consent": "talán"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "InvalidAnswer", decode[model.ValidationErrorResponse](t, rec).Kind)

	rec = s.do(t, http.MethodPost, "/v1/sessions/current/submit", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_SubmitAndExport(t *testing.T) {
	s := newTestServer(t, 10)

	started := decode[model.SessionResponse](t, s.do(t, http.MethodPost, "/v1/sessions", "", nil))
	token := started.Token

	for i := 0; i < s.schedule.Last(); i++ {
		p, _ := s.schedule.Page(i)
		rec := s.do(t, http.MethodPost, "/v1/sessions/current/next", token,
			model.AnswersRequest{Answers: answersFor(p)})
		require.Equal(t, http.StatusOK, rec.Code, "page %d: %s", i, rec.Body.String())
	}

	last, _ := s.schedule.Page(s.schedule.Last())
	rec := s.do(t, http.MethodPost, "/v1/sessions/current/submit", token,
		model.AnswersRequest{Answers: answersFor(last)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[model.SessionResponse](t, rec)
	assert.True(t, done.View.Submitted)
	assert.Empty(t, done.Warning)

	rec = s.do(t, http.MethodPost, "/v1/sessions/current/submit", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/responses", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/v1/responses", token, nil).Code,
		"respondent tokens do not open researcher routes")

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "kutato", Password: "jelszo"})
	require.Equal(t, http.StatusOK, rec.Code)
	researcher := decode[model.LoginResponse](t, rec).Token

	rec = s.do(t, http.MethodGet, "/v1/responses?limit=10", researcher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.ResponseList](t, rec)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Rows, 1)
	assert.Equal(t, started.View.SessionID, list.Rows[0][survey.ColumnID])
	assert.Equal(t, survey.Columns(s.schedule), list.Columns)

	rec = s.do(t, http.MethodGet, "/v1/responses/export", researcher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "responses-")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\ufeffid,entered_at"))

	rec = s.do(t, http.MethodGet, "/v1/responses/progress", researcher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decode[cache.Progress](t, rec)
	assert.Equal(t, int64(1), progress.Completed)
	assert.Equal(t, 0, progress.Active)
}

func TestRouter_Restart(t *testing.T) {
	s := newTestServer(t, 10)
	started := decode[model.SessionResponse](t, s.do(t, http.MethodPost, "/v1/sessions", "", nil))

	rec := s.do(t, http.MethodPost, "/v1/sessions/current/restart", started.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fresh := decode[model.SessionResponse](t, rec)
	assert.NotEqual(t, started.Token, fresh.Token)
	assert.NotEqual(t, started.View.SessionID, fresh.View.SessionID)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/v1/sessions/current", started.Token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/sessions/current", fresh.Token, nil).Code)
}

func TestRouter_LoginRejected(t *testing.T) {
	s := newTestServer(t, 10)
	rec := s.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "kutato", Password: "rossz"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_SessionCreationIsRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/v1/sessions", "", nil).Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/v1/sessions", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/v1/sessions", "", nil).Code)
}

func TestRouter_OversizedBodyRejected(t *testing.T) {
	s := newTestServer(t, 10)
	started := decode[model.SessionResponse](t, s.do(t, http.MethodPost, "/v1/sessions", "", nil))

	huge := strings.Repeat("a", 128<<10)
	rec := s.do(t, http.MethodPut, "/v1/sessions/current/answers", started.Token,
		model.AnswersRequest{Answers: map[string]any{"consent": huge}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: huge, Password: "jelszo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/sessions/current", started.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[model.SessionResponse](t, rec).View.Answers)
}
