package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns_Study(t *testing.T) {
	cols := Columns(Study())

	require.Len(t, cols, 67)
	assert.Equal(t, []string{ColumnID, ColumnEnteredAt, ColumnSubmittedAt, ColumnGroup}, cols[:4])
	assert.Equal(t, DurationColumn(0), cols[4])
	assert.Equal(t, DurationColumn(14), cols[18])
	assert.Equal(t, "consent", cols[19])
	assert.Equal(t, "decision_choice", cols[20])
	assert.Equal(t, "factors_price", cols[22])
	assert.Equal(t, "demographics_residence", cols[len(cols)-1])
}

func TestFlatten_SchemaStable(t *testing.T) {
	c, _ := newTestController(t)
	schedule := c.Schedule()

	empty := c.NewSession()
	partial := c.NewSession()
	fillAndAdvance(t, c, partial)
	fillAndAdvance(t, c, partial)

	a := Flatten(empty, schedule)
	b := Flatten(partial, schedule)
	assert.Equal(t, a.Columns, b.Columns)
	assert.Equal(t, Columns(schedule), a.Columns)

	assert.Nil(t, a.Get("consent"))
	assert.Nil(t, a.Get("factors_price"))
	assert.Equal(t, ConsentYes, b.Get("consent"))
	for _, col := range a.Columns {
		_, ok := a.Values[col]
		assert.True(t, ok, "column %s has a value slot", col)
	}
}

func collisionSchedule() *Schedule {
	return MustSchedule([]Page{
		{
			Index: 0,
			Key:   "a",
			Questions: []Question{
				{Key: "group", Type: QuestionTypeText},
				{Key: "x_y", Type: QuestionTypeText},
				{Key: "x", Type: QuestionTypeLikert, ScaleMin: 1, ScaleMax: 10, Items: []Item{{Label: "y"}, {Label: "z"}}},
			},
			Prev: NoPage,
			Next: 1,
		},
		{
			Index:     1,
			Key:       "b",
			Questions: []Question{{Key: "x_y_2", Type: QuestionTypeText}},
			Prev:      0,
			Next:      NoPage,
		},
	})
}

func TestFlatten_CollisionsAreDeterministic(t *testing.T) {
	schedule := collisionSchedule()

	want := []string{
		ColumnID, ColumnEnteredAt, ColumnSubmittedAt, ColumnGroup,
		DurationColumn(0), DurationColumn(1),
		"group_2", "x_y", "x_y_2", "x_z", "x_y_2_2",
	}
	assert.Equal(t, want, Columns(schedule))
	assert.Equal(t, want, Columns(schedule))

	s := &Session{ID: "s1", Group: GroupText, EnteredAt: time.Now(), Answers: NewAnswerStore(), Ledger: NewLedger()}
	s.Answers.Set("group", "answer")
	s.Answers.Set("x", Items{"y": 4, "z": 5})
	s.Answers.Set("x_y", "plain")

	rec := Flatten(s, schedule)
	assert.Equal(t, GroupText, rec.Get(ColumnGroup))
	assert.Equal(t, "answer", rec.Get("group_2"))
	assert.Equal(t, "plain", rec.Get("x_y"))
	assert.Equal(t, 4, rec.Get("x_y_2"))
	assert.Equal(t, 5, rec.Get("x_z"))
}

func TestFlatten_InconsistentNesting(t *testing.T) {
	schedule := collisionSchedule()
	s := &Session{ID: "s1", Answers: NewAnswerStore(), Ledger: NewLedger()}
	s.Answers.Set("x", 7)
	s.Answers.Set("group", Items{"k": 1})

	rec := Flatten(s, schedule)
	assert.Nil(t, rec.Get("x_y_2"))
	assert.Nil(t, rec.Get("x_z"))
	assert.Equal(t, `{"k":1}`, rec.Get("group_2"))
}

func TestFlatten_ExtraKeysAppended(t *testing.T) {
	schedule := collisionSchedule()
	s := &Session{ID: "s1", Answers: NewAnswerStore(), Ledger: NewLedger()}
	s.Answers.Set("legacy", "v")
	s.Answers.Set("scores", Items{"b": 2, "a": 1})

	rec := Flatten(s, schedule)
	base := len(Columns(schedule))
	assert.Equal(t, []string{"legacy", "scores_a", "scores_b"}, rec.Columns[base:])
	assert.Equal(t, 1, rec.Get("scores_a"))
}

func TestRecord_Cells(t *testing.T) {
	submitted := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{
		ID:          "s1",
		Group:       GroupVisual,
		EnteredAt:   submitted.Add(-time.Minute),
		SubmittedAt: &submitted,
		Answers:     NewAnswerStore(),
		Ledger:      NewLedger(),
	}
	s.Ledger.RecordEntry(0, submitted.Add(-time.Minute))
	s.Ledger.RecordExit(0, submitted.Add(-time.Minute+2500*time.Millisecond))
	s.Answers.Set("x_y", "szöveg")

	cells := Flatten(s, collisionSchedule()).Cells()
	assert.Equal(t, []string{
		"s1", "2025-02-01T09:59:00Z", "2025-02-01T10:00:00Z", GroupVisual,
		"2.5", "0",
		"", "szöveg", "", "", "",
	}, cells)
}
