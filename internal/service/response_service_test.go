package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aisurvey/internal/repository"
	"aisurvey/internal/survey"
)

func seedStore(n int) *fakeStore {
	s := &fakeStore{}
	for i := 0; i < n; i++ {
		s.records = append(s.records, survey.Record{
			Columns: []string{"id", "group"},
			Values:  map[string]any{"id": string(rune('a' + i)), "group": survey.GroupText},
		})
	}
	return s
}

func TestResponseService_List(t *testing.T) {
	svc := NewResponseService(seedStore(3))

	list, err := svc.List(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, []string{"id", "group"}, list.Columns)
	assert.Equal(t, []map[string]string{{"id": "b", "group": survey.GroupText}}, list.Rows)

	list, err = svc.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list.Rows)
	assert.Equal(t, defaultPageSize, list.Limit)
}

func TestResponseService_Export(t *testing.T) {
	svc := NewResponseService(seedStore(2))

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf))

	tbl, err := repository.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "text"}, {"b", "text"}}, tbl.Rows)
}

func TestResponseService_StoreError(t *testing.T) {
	store := seedStore(1)
	store.err = errBoom
	_, err := NewResponseService(store).List(context.Background(), 0, 10)
	assert.ErrorIs(t, err, errBoom)
}
