package notify

import (
	"context"

	"aisurvey/internal/survey"
)

// Notifier announces a stored submission. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, rec survey.Record) error
	Close()
}

type nopNotifier struct{}

// NewNop returns a notifier that does nothing, used when email is not configured.
func NewNop() Notifier {
	return nopNotifier{}
}

func (nopNotifier) Notify(context.Context, survey.Record) error { return nil }
func (nopNotifier) Close()                                      {}
