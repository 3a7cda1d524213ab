package survey

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"
)

// Session columns, always first.
const (
	ColumnID          = "id"
	ColumnEnteredAt   = "entered_at"
	ColumnSubmittedAt = "submitted_at"
	ColumnGroup       = "group"
)

// DurationColumn names the dwell-time column of a page.
func DurationColumn(page int) string {
	return fmt.Sprintf("duration_page_%d", page)
}

// Record is one flattened session: ordered columns and their values.
// Missing answers are nil.
type Record struct {
	Columns []string
	Values  map[string]any
}

// Get returns the value of a column.
func (r Record) Get(column string) any {
	return r.Values[column]
}

// Cells formats the record in column order.
func (r Record) Cells() []string {
	out := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		out[i] = FormatCell(r.Values[col])
	}
	return out
}

// FormatCell renders a value for a tabular store. nil becomes "".
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return formatTime(t)
	default:
		return fmt.Sprint(t)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// columnPlan maps answer keys (and key/label pairs) to column names.
type columnPlan struct {
	columns []string
	taken   map[string]bool
	scalar  map[string]string
	grouped map[string]map[string]string
}

func newColumnPlan(pages int) *columnPlan {
	p := &columnPlan{
		taken:   make(map[string]bool),
		scalar:  make(map[string]string),
		grouped: make(map[string]map[string]string),
	}
	for _, col := range []string{ColumnID, ColumnEnteredAt, ColumnSubmittedAt, ColumnGroup} {
		p.reserve(col)
	}
	for i := 0; i < pages; i++ {
		p.reserve(DurationColumn(i))
	}
	return p
}

func (p *columnPlan) reserve(name string) {
	p.taken[name] = true
	p.columns = append(p.columns, name)
}

// claim reserves name, or the first free name_2, name_3, ... after it.
func (p *columnPlan) claim(name string) string {
	candidate := name
	for n := 2; p.taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
	p.reserve(candidate)
	return candidate
}

func (p *columnPlan) known(key string) bool {
	_, s := p.scalar[key]
	_, g := p.grouped[key]
	return s || g
}

func (p *columnPlan) addScalar(key string) {
	p.scalar[key] = p.claim(key)
}

func (p *columnPlan) addGrouped(key string, labels []string) {
	cols := make(map[string]string, len(labels))
	for _, label := range labels {
		cols[label] = p.claim(key + "_" + label)
	}
	p.grouped[key] = cols
}

// planFor lays out columns for every question of the schedule in declaration
// order. A key declared twice keeps its first position and the items of its
// last declaration.
func planFor(schedule *Schedule) *columnPlan {
	plan := newColumnPlan(schedule.Len())
	for _, page := range schedule.pages {
		for _, q := range page.Questions {
			if plan.known(q.Key) {
				continue
			}
			last, _ := schedule.Question(q.Key)
			if last.Grouped() {
				plan.addGrouped(q.Key, last.Labels())
			} else {
				plan.addScalar(q.Key)
			}
		}
	}
	return plan
}

// Columns returns the column set Flatten produces for the schedule.
func Columns(schedule *Schedule) []string {
	return slices.Clone(planFor(schedule).columns)
}

// Flatten turns a session into one record. The column set depends only on the
// schedule; answers without a question on the schedule are appended after it
// in first-write order.
func Flatten(s *Session, schedule *Schedule) Record {
	plan := planFor(schedule)

	values := make(map[string]any, len(plan.columns))
	values[ColumnID] = s.ID
	values[ColumnEnteredAt] = formatTime(s.EnteredAt)
	values[ColumnSubmittedAt] = nil
	if s.SubmittedAt != nil {
		values[ColumnSubmittedAt] = formatTime(*s.SubmittedAt)
	}
	values[ColumnGroup] = s.Group

	ledger := s.Ledger
	if ledger == nil {
		ledger = NewLedger()
	}
	for i := 0; i < schedule.Len(); i++ {
		values[DurationColumn(i)] = ledger.Duration(i)
	}

	answers := s.Answers
	if answers == nil {
		answers = NewAnswerStore()
	}

	for _, key := range answers.Keys() {
		if plan.known(key) {
			continue
		}
		v, _ := answers.Get(key)
		if items, ok := v.(Items); ok {
			labels := make([]string, 0, len(items))
			for label := range items {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			plan.addGrouped(key, labels)
			continue
		}
		plan.addScalar(key)
	}

	for key, col := range plan.scalar {
		v, _ := answers.Get(key)
		values[col] = scalarCell(v)
	}
	for key, cols := range plan.grouped {
		v, _ := answers.Get(key)
		items, _ := v.(Items)
		for label, col := range cols {
			values[col] = scalarCell(items[label])
		}
	}

	return Record{Columns: slices.Clone(plan.columns), Values: values}
}

// scalarCell keeps scalars and encodes a stray Items value as JSON text.
func scalarCell(v any) any {
	items, ok := v.(Items)
	if !ok {
		return v
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Sprint(items)
	}
	return string(b)
}
