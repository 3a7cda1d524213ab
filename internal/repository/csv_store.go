package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"aisurvey/internal/survey"
)

type csvStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore creates a store backed by a single CSV file at path.
func NewCSVStore(path string) ResponseStore {
	return &csvStore{path: path}
}

func (s *csvStore) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	return true, nil
}

func (s *csvStore) ReadAll(ctx context.Context) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *csvStore) read() (*Table, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Table{Columns: []string{}, Rows: [][]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// Append adds rec in place when the file already carries every column of
// rec. Otherwise the file is rewritten with the widened header.
func (s *csvStore) Append(ctx context.Context, rec survey.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.read()
	if err != nil {
		return err
	}

	for _, row := range t.Rows {
		if i := slices.Index(t.Columns, survey.ColumnID); i >= 0 && i < len(row) && row[i] == rec.Values[survey.ColumnID] {
			return ErrDuplicateResponse
		}
	}

	if len(t.Columns) > 0 && !t.Widen(rec.Columns) {
		return s.appendRow(t.Columns, rec)
	}
	t.AddRow(rec.Columns, rec.Cells())
	return s.rewrite(t)
}

func (s *csvStore) appendRow(columns []string, rec survey.Record) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = survey.FormatCell(rec.Values[c])
	}
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// rewrite replaces the file atomically through a temp file in the same dir.
func (s *csvStore) rewrite(t *Table) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
