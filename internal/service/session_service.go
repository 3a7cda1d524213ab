package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"aisurvey/internal/cache"
	"aisurvey/internal/logger"
	"aisurvey/internal/metrics"
	"aisurvey/internal/model"
	"aisurvey/internal/notify"
	"aisurvey/internal/repository"
	"aisurvey/internal/survey"
)

var ErrSessionNotFound = errors.New("session not found")

// PersistenceWarning is shown when a submission could not be stored. The
// session stays submitted.
const PersistenceWarning = "A válaszok mentése nem sikerült, kérjük, jelezze a kutatónak."

const notifyTimeout = 30 * time.Second

// SessionService runs respondent sessions: navigation, submission, restart
type SessionService struct {
	controller  *survey.Controller
	sessions    cache.SessionCache
	progress    cache.ProgressCache
	store       repository.ResponseStore
	notifier    notify.Notifier
	authSvc     *AuthService
	broadcaster Broadcaster

	notifications sync.WaitGroup
}

// NewSessionService creates a new session service
func NewSessionService(
	controller *survey.Controller,
	sessions cache.SessionCache,
	progress cache.ProgressCache,
	store repository.ResponseStore,
	notifier notify.Notifier,
	authSvc *AuthService,
) *SessionService {
	return &SessionService{
		controller: controller,
		sessions:   sessions,
		progress:   progress,
		store:      store,
		notifier:   notifier,
		authSvc:    authSvc,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start creates a session on the first page and issues its token
func (s *SessionService) Start(ctx context.Context) (*model.SessionResponse, error) {
	sess := s.controller.NewSession()
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	token, err := s.authSvc.GenerateRespondentToken(sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.trackPage(ctx, sess)
	metrics.SessionsStarted.WithLabelValues(sess.Group).Inc()
	logger.Log.Info("session started", zap.String("session_id", sess.ID), zap.String("group", sess.Group))
	s.broadcast(model.EventSessionStarted, sess, nil)

	return &model.SessionResponse{Token: token, View: s.controller.View(sess)}, nil
}

// Current returns the view of the session's current page
func (s *SessionService) Current(ctx context.Context, id string) (*model.SessionResponse, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.SessionResponse{View: s.controller.View(sess)}, nil
}

// SaveAnswers stores answers for the current page without moving
func (s *SessionService) SaveAnswers(ctx context.Context, id string, answers map[string]any) (*model.SessionResponse, error) {
	sess, err := s.withSession(ctx, id, func(sess *survey.Session) error {
		return s.controller.AnswerAll(sess, answers)
	})
	if err != nil {
		return nil, err
	}
	return &model.SessionResponse{View: s.controller.View(sess)}, nil
}

// Next saves answers, if any, then advances. Saved answers are kept even when
// the transition is refused.
func (s *SessionService) Next(ctx context.Context, id string, answers map[string]any) (*model.SessionResponse, error) {
	return s.navigate(ctx, id, "next", func(sess *survey.Session) error {
		if len(answers) > 0 {
			if err := s.controller.AnswerAll(sess, answers); err != nil {
				return err
			}
		}
		return s.controller.Next(sess)
	})
}

// Back returns to the previous page
func (s *SessionService) Back(ctx context.Context, id string) (*model.SessionResponse, error) {
	return s.navigate(ctx, id, "back", s.controller.Back)
}

func (s *SessionService) navigate(ctx context.Context, id, direction string, move func(*survey.Session) error) (*model.SessionResponse, error) {
	var from int
	sess, err := s.withSession(ctx, id, func(sess *survey.Session) error {
		from = sess.CurrentPage
		return move(sess)
	})
	if err != nil {
		metrics.Transitions.WithLabelValues(direction, outcome(err)).Inc()
		return nil, err
	}
	metrics.Transitions.WithLabelValues(direction, "ok").Inc()
	metrics.PageDwell.WithLabelValues(strconv.Itoa(from)).Observe(sess.Ledger.Duration(from))

	s.trackPage(ctx, sess)
	s.broadcast(model.EventPageChanged, sess, nil)
	return &model.SessionResponse{View: s.controller.View(sess)}, nil
}

// Submit validates the last page, stores the flattened row and fires the
// notification. A storage failure becomes a warning on a submitted session.
func (s *SessionService) Submit(ctx context.Context, id string, answers map[string]any) (*model.SessionResponse, error) {
	var rec survey.Record
	sess, err := s.withSession(ctx, id, func(sess *survey.Session) error {
		if len(answers) > 0 {
			if err := s.controller.AnswerAll(sess, answers); err != nil {
				return err
			}
		}
		var err error
		rec, err = s.controller.Submit(sess)
		return err
	})
	if err != nil {
		metrics.Transitions.WithLabelValues("submit", outcome(err)).Inc()
		return nil, err
	}
	metrics.Transitions.WithLabelValues("submit", "ok").Inc()
	metrics.PageDwell.WithLabelValues(strconv.Itoa(s.controller.Schedule().Last())).
		Observe(sess.Ledger.Duration(s.controller.Schedule().Last()))

	resp := &model.SessionResponse{View: s.controller.View(sess)}
	persisted := true
	if err := s.store.Append(ctx, rec); err != nil {
		persisted = false
		resp.Warning = PersistenceWarning
		logger.Log.Error("failed to store response", zap.String("session_id", sess.ID), zap.Error(err))
	}
	metrics.Submissions.WithLabelValues(sess.Group, strconv.FormatBool(persisted)).Inc()

	if err := s.progress.MarkCompleted(ctx, sess.ID); err != nil {
		logger.Log.Warn("failed to update progress", zap.String("session_id", sess.ID), zap.Error(err))
	}
	logger.Log.Info("session submitted", zap.String("session_id", sess.ID), zap.Bool("persisted", persisted))
	s.broadcast(model.EventSessionSubmitted, sess, &persisted)

	if persisted {
		s.notifyAsync(rec)
	}
	return resp, nil
}

// Restart discards the session and starts a fresh one with a new token
func (s *SessionService) Restart(ctx context.Context, id string) (*model.SessionResponse, error) {
	unlock, err := s.sessions.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	old, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if old == nil {
		return nil, ErrSessionNotFound
	}

	fresh := s.controller.Restart(old)
	if err := s.sessions.Set(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if err := s.sessions.Delete(ctx, old.ID); err != nil {
		logger.Log.Warn("failed to drop old session", zap.String("session_id", old.ID), zap.Error(err))
	}
	if !old.Submitted() {
		if err := s.progress.Remove(ctx, old.ID); err != nil {
			logger.Log.Warn("failed to update progress", zap.String("session_id", old.ID), zap.Error(err))
		}
	}

	token, err := s.authSvc.GenerateRespondentToken(fresh.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.trackPage(ctx, fresh)
	metrics.SessionsStarted.WithLabelValues(fresh.Group).Inc()
	logger.Log.Info("session restarted", zap.String("old_session_id", old.ID), zap.String("session_id", fresh.ID))
	s.broadcast(model.EventSessionRestarted, fresh, nil)

	return &model.SessionResponse{Token: token, View: s.controller.View(fresh)}, nil
}

// Close waits for in-flight notifications and releases the notifier
func (s *SessionService) Close() {
	s.notifications.Wait()
	s.notifier.Close()
}

func (s *SessionService) load(ctx context.Context, id string) (*survey.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// withSession runs fn under the session lock and stores the session
// afterwards, also when fn refused the action: answers saved before a refused
// transition are kept.
func (s *SessionService) withSession(ctx context.Context, id string, fn func(*survey.Session) error) (*survey.Session, error) {
	unlock, err := s.sessions.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	actionErr := fn(sess)
	if errors.Is(actionErr, survey.ErrAlreadySubmitted) {
		return nil, actionErr
	}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if actionErr != nil {
		return nil, actionErr
	}
	return sess, nil
}

func (s *SessionService) trackPage(ctx context.Context, sess *survey.Session) {
	if err := s.progress.SetPage(ctx, sess.ID, sess.CurrentPage); err != nil {
		logger.Log.Warn("failed to update progress", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *SessionService) notifyAsync(rec survey.Record) {
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, rec); err != nil {
			metrics.NotificationFailures.Inc()
			logger.Log.Error("failed to send notification",
				zap.Any("session_id", rec.Get(survey.ColumnID)), zap.Error(err))
		}
	}()
}

func (s *SessionService) broadcast(event string, sess *survey.Session, persisted *bool) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToMonitors(event, model.SessionEvent{
		SessionID: sess.ID,
		Group:     sess.Group,
		Page:      sess.CurrentPage,
		At:        time.Now(),
		Persisted: persisted,
	})
}

func outcome(err error) string {
	var verr *survey.ValidationError
	if errors.As(err, &verr) {
		return verr.KindName()
	}
	return "error"
}
