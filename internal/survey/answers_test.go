package survey

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerStore_OrderAndOverwrite(t *testing.T) {
	a := NewAnswerStore()
	a.Set("consent", "Igen")
	a.Set("decision_choice", "Róma")
	a.Set("consent", "Nem")

	assert.Equal(t, []string{"consent", "decision_choice"}, a.Keys())
	v, ok := a.Get("consent")
	assert.True(t, ok)
	assert.Equal(t, "Nem", v)

	_, ok = a.Get("aias")
	assert.False(t, ok)
	assert.Equal(t, 2, a.Len())
}

func TestAnswerStore_NormalizesMapsAndNumbers(t *testing.T) {
	a := NewAnswerStore()
	a.Set("aias", map[string]any{"life": float64(7), "work": nil})
	a.Set("decision_count", float64(2))

	v, _ := a.Get("aias")
	assert.Equal(t, Items{"life": 7, "work": nil}, v)
	n, _ := a.Get("decision_count")
	assert.Equal(t, 2, n)
}

func TestAnswerStore_SnapshotIsCopy(t *testing.T) {
	a := NewAnswerStore()
	a.Set("aias", Items{"life": 3})

	snap := a.All()
	snap[0].Value.(Items)["life"] = 9

	v, _ := a.Get("aias")
	assert.Equal(t, 3, v.(Items)["life"])
}

func TestAnswerStore_JSONRoundTrip(t *testing.T) {
	a := NewAnswerStore()
	a.Set("consent", "Igen")
	a.Set("factors", Items{"price": 4, "safety": 10})
	a.Set("decision_count", 0)
	a.Set("empty_group", Items{})

	data, err := json.Marshal(a)
	require.NoError(t, err)

	b := NewAnswerStore()
	require.NoError(t, json.Unmarshal(data, b))

	assert.Equal(t, a.Keys(), b.Keys())
	assert.Equal(t, a.Map(), b.Map())
}
