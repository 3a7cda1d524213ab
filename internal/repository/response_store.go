package repository

import (
	"context"
	"errors"

	"aisurvey/internal/survey"
)

var ErrDuplicateResponse = errors.New("response already stored")

// ResponseStore persists one flattened row per submitted session.
type ResponseStore interface {
	// Append stores a row, creating the table on first use and widening the
	// column set when the row carries columns the table has not seen.
	Append(ctx context.Context, rec survey.Record) error
	// Exists reports whether the table has been created.
	Exists(ctx context.Context) (bool, error)
	// ReadAll returns every stored row under the widened column set.
	ReadAll(ctx context.Context) (*Table, error)
}
