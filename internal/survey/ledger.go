package survey

import (
	"math"
	"time"
)

// Visit is the latest entry/exit pair recorded for a page.
type Visit struct {
	EnteredAt time.Time  `json:"enteredAt,omitempty"`
	LeftAt    *time.Time `json:"leftAt,omitempty"`
	Count     int        `json:"count"`
}

// open reports whether the visit has been entered and not yet left.
func (v *Visit) open() bool {
	return !v.EnteredAt.IsZero() && v.LeftAt == nil
}

// Ledger keeps the most recent visit for every page index.
// Earlier visits are overwritten on re-entry; durations are never summed.
type Ledger struct {
	Visits map[int]*Visit `json:"visits"`
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{Visits: make(map[int]*Visit)}
}

// RecordEntry starts a new visit of page at the given instant. It is a no-op
// while the current visit of page is still open.
func (l *Ledger) RecordEntry(page int, at time.Time) {
	if l.Visits == nil {
		l.Visits = make(map[int]*Visit)
	}
	prev, ok := l.Visits[page]
	if ok && prev.open() {
		return
	}
	count := 1
	if ok {
		count = prev.Count + 1
	}
	l.Visits[page] = &Visit{EnteredAt: at, Count: count}
}

// RecordExit closes the current visit of page.
func (l *Ledger) RecordExit(page int, at time.Time) {
	if l.Visits == nil {
		l.Visits = make(map[int]*Visit)
	}
	v, ok := l.Visits[page]
	if !ok {
		v = &Visit{}
		l.Visits[page] = v
	}
	left := at
	v.LeftAt = &left
}

// Visit returns the latest visit of page.
func (l *Ledger) Visit(page int) (Visit, bool) {
	v, ok := l.Visits[page]
	if !ok {
		return Visit{}, false
	}
	return *v, true
}

// Duration returns the seconds spent on the latest visit of page,
// or 0 when the visit is missing either stamp.
func (l *Ledger) Duration(page int) float64 {
	v, ok := l.Visits[page]
	if !ok || v.EnteredAt.IsZero() || v.LeftAt == nil {
		return 0
	}
	d := v.LeftAt.Sub(v.EnteredAt)
	if d < 0 {
		return 0
	}
	return math.Round(d.Seconds()*1000) / 1000
}

// Durations returns one duration per page index 0..pages-1.
func (l *Ledger) Durations(pages int) []float64 {
	out := make([]float64, pages)
	for i := range out {
		out[i] = l.Duration(i)
	}
	return out
}
