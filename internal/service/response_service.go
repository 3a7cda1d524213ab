package service

import (
	"context"
	"fmt"
	"io"

	"aisurvey/internal/model"
	"aisurvey/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ResponseService gives researchers access to stored rows
type ResponseService struct {
	store repository.ResponseStore
}

// NewResponseService creates a new response service
func NewResponseService(store repository.ResponseStore) *ResponseService {
	return &ResponseService{store: store}
}

// List returns stored rows [offset, offset+limit) keyed by column
func (s *ResponseService) List(ctx context.Context, offset, limit int) (*model.ResponseList, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	t, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}

	list := &model.ResponseList{
		Columns: t.Columns,
		Rows:    []map[string]string{},
		Total:   len(t.Rows),
		Offset:  offset,
		Limit:   limit,
	}
	for i := range t.Slice(offset, limit) {
		list.Rows = append(list.Rows, t.Record(offset+i))
	}
	return list, nil
}

// Export writes every stored row as CSV under the widened header
func (s *ResponseService) Export(ctx context.Context, w io.Writer) error {
	t, err := s.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read responses: %w", err)
	}
	return repository.WriteCSV(w, t)
}
