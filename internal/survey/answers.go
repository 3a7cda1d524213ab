package survey

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// Items is a grouped answer for a multi-item scale: item label -> scalar.
// An unanswered item is either absent or nil.
type Items map[string]any

// Answer is one entry of an AnswerStore snapshot.
type Answer struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// AnswerStore is the per-session mapping from question key to answer.
// Writing an existing key overwrites it but keeps its first-write position.
type AnswerStore struct {
	order  []string
	values map[string]any
}

// NewAnswerStore creates an empty store
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{values: make(map[string]any)}
}

// Set inserts or overwrites key.
func (a *AnswerStore) Set(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, ok := a.values[key]; !ok {
		a.order = append(a.order, key)
	}
	a.values[key] = normalizeValue(value)
}

// Get returns the stored value for key.
func (a *AnswerStore) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Len returns the number of keys.
func (a *AnswerStore) Len() int {
	return len(a.order)
}

// Keys returns keys in first-write order.
func (a *AnswerStore) Keys() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// All returns a snapshot of every answer in first-write order.
func (a *AnswerStore) All() []Answer {
	out := make([]Answer, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, Answer{Key: k, Value: copyValue(a.values[k])})
	}
	return out
}

// Map returns a copy of the store as a plain map.
func (a *AnswerStore) Map() map[string]any {
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = copyValue(v)
	}
	return out
}

type storedAnswer struct {
	Key     string `json:"key"`
	Value   any    `json:"value"`
	Items   Items  `json:"items,omitempty"`
	Grouped bool   `json:"grouped,omitempty"`
}

func (a *AnswerStore) MarshalJSON() ([]byte, error) {
	out := make([]storedAnswer, 0, len(a.order))
	for _, k := range a.order {
		v := a.values[k]
		if items, ok := v.(Items); ok {
			out = append(out, storedAnswer{Key: k, Items: items, Grouped: true})
			continue
		}
		out = append(out, storedAnswer{Key: k, Value: v})
	}
	return json.Marshal(out)
}

func (a *AnswerStore) UnmarshalJSON(data []byte) error {
	var in []storedAnswer
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return err
	}
	a.order = nil
	a.values = make(map[string]any, len(in))
	for _, sa := range in {
		if sa.Grouped {
			if sa.Items == nil {
				sa.Items = Items{}
			}
			a.Set(sa.Key, sa.Items)
			continue
		}
		a.Set(sa.Key, sa.Value)
	}
	return nil
}

// normalizeValue turns decoded JSON shapes into the store's canonical forms:
// integral numbers become int, nested maps become Items.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case Items:
		out := make(Items, len(t))
		for k, iv := range t {
			out[k] = normalizeScalar(iv)
		}
		return out
	case map[string]any:
		out := make(Items, len(t))
		for k, iv := range t {
			out[k] = normalizeScalar(iv)
		}
		return out
	case map[string]int:
		out := make(Items, len(t))
		for k, iv := range t {
			out[k] = iv
		}
		return out
	case map[string]string:
		out := make(Items, len(t))
		for k, iv := range t {
			out[k] = iv
		}
		return out
	default:
		return normalizeScalar(v)
	}
}

func normalizeScalar(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int(t)
		}
		return t
	case float32:
		return normalizeScalar(float64(t))
	case int64:
		return int(t)
	case int32:
		return int(t)
	default:
		return v
	}
}

func copyValue(v any) any {
	if items, ok := v.(Items); ok {
		out := make(Items, len(items))
		for k, iv := range items {
			out[k] = iv
		}
		return out
	}
	return v
}

// blank reports whether a scalar counts as unanswered.
func blank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// asInt extracts an integer scalar.
func asInt(v any) (int, bool) {
	switch t := normalizeScalar(v).(type) {
	case int:
		return t, true
	default:
		return 0, false
	}
}
