package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudy_Shape(t *testing.T) {
	s := Study()
	require.Equal(t, 15, s.Len())
	assert.Equal(t, 14, s.Last())

	for i, p := range s.Pages() {
		assert.Equal(t, i, p.Index)
		if i == 0 {
			assert.Equal(t, NoPage, p.Prev)
		} else {
			assert.Equal(t, i-1, p.Prev)
		}
		if i == s.Last() {
			assert.True(t, p.Terminal())
		} else {
			assert.Equal(t, i+1, p.Next)
		}
	}

	for i, name := range []string{OfferPrague, OfferBarcelona, OfferRome} {
		p, _ := s.Page(i + 1)
		require.NotNil(t, p.Offer)
		assert.Equal(t, name, p.Offer.Name)
		assert.Empty(t, p.Required)
	}

	q, ok := s.Question("factors")
	require.True(t, ok)
	assert.Len(t, q.Items, 13)
	assert.Equal(t, 5, q.Default)

	q, ok = s.Question("demographics")
	require.True(t, ok)
	it, ok := q.Item("age")
	require.True(t, ok)
	assert.Len(t, it.Options, 5)
}

func TestNewSchedule_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		pages []Page
	}{
		{name: "empty", pages: nil},
		{name: "index gap", pages: []Page{{Index: 1, Prev: NoPage, Next: NoPage}}},
		{name: "first page with predecessor", pages: []Page{{Index: 0, Prev: 0, Next: NoPage}}},
		{name: "terminal in the middle", pages: []Page{
			{Index: 0, Prev: NoPage, Next: NoPage},
			{Index: 1, Prev: 0, Next: NoPage},
		}},
		{name: "last page not terminal", pages: []Page{{Index: 0, Prev: NoPage, Next: 0}}},
		{name: "undeclared required key", pages: []Page{{Index: 0, Prev: NoPage, Next: NoPage, Required: []string{"q"}}}},
		{name: "undeclared consent key", pages: []Page{{Index: 0, Prev: NoPage, Next: NoPage, ConsentKey: "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchedule(tt.pages)
			assert.Error(t, err)
		})
	}
}

func TestQuestion_Accepts(t *testing.T) {
	demo, _ := Study().Question("demographics")
	assert.NoError(t, demo.Accepts(Items{"gender": "Nő", "age": "25–34 év"}))
	assert.Error(t, demo.Accepts(Items{"gender": "25–34 év"}), "item options override question options")
	assert.NoError(t, demo.Accepts(nil))

	count, _ := Study().Question("decision_count")
	assert.NoError(t, count.Accepts(0))
	assert.Error(t, count.Accepts(4))
	assert.Error(t, count.Accepts(Items{"a": 1}))
}
