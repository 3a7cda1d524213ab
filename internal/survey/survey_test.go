package survey

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestController(t *testing.T) (*Controller, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	c := NewController(Study(), WithClock(clock.Now), WithRand(rand.New(rand.NewPCG(1, 2))))
	return c, clock
}

// validAnswers builds a complete, consistent answer set for a page.
func validAnswers(p Page) map[string]any {
	out := make(map[string]any)
	for _, q := range p.Questions {
		if q.Grouped() {
			items := Items{}
			for _, it := range q.Items {
				items[it.Label] = sampleValue(q, it.Options)
			}
			out[q.Key] = items
			continue
		}
		out[q.Key] = sampleValue(q, q.Options)
	}
	return out
}

func sampleValue(q Question, options []string) any {
	if len(options) == 0 {
		options = q.Options
	}
	switch q.Type {
	case QuestionTypeChoice:
		return options[0]
	case QuestionTypeLikert:
		return q.ScaleMin
	case QuestionTypeNumber:
		return q.ScaleMax
	default:
		return "A város hangulata."
	}
}

// fillAndAdvance answers the current page and moves forward.
func fillAndAdvance(t *testing.T, c *Controller, s *Session) {
	t.Helper()
	p, ok := c.Schedule().Page(s.CurrentPage)
	require.True(t, ok)
	require.NoError(t, c.AnswerAll(s, validAnswers(p)))
	require.NoError(t, c.Next(s))
}
