package repository

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a set of rows aligned to an ordered column list. Rows shorter than
// Columns are padded with empty cells.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Widen appends any of cols the table does not have yet, keeping existing
// order, and reports whether the column set changed.
func (t *Table) Widen(cols []string) bool {
	changed := false
	for _, c := range cols {
		if !slices.Contains(t.Columns, c) {
			t.Columns = append(t.Columns, c)
			changed = true
		}
	}
	if changed {
		for i, row := range t.Rows {
			t.Rows[i] = pad(row, len(t.Columns))
		}
	}
	return changed
}

// AddRow widens the table as needed and appends values laid out by column.
func (t *Table) AddRow(cols, cells []string) {
	t.Widen(cols)
	row := make([]string, len(t.Columns))
	for i, c := range cols {
		row[slices.Index(t.Columns, c)] = cells[i]
	}
	t.Rows = append(t.Rows, row)
}

// Slice returns rows [offset, offset+limit). limit <= 0 means no limit.
func (t *Table) Slice(offset, limit int) [][]string {
	if offset >= len(t.Rows) {
		return [][]string{}
	}
	end := len(t.Rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return t.Rows[offset:end]
}

// Record returns row i keyed by column.
func (t *Table) Record(i int) map[string]string {
	out := make(map[string]string, len(t.Columns))
	for j, c := range t.Columns {
		if j < len(t.Rows[i]) {
			out[c] = t.Rows[i][j]
		}
	}
	return out
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	return append(row, make([]string, n-len(row))...)
}

// WriteCSV writes the table as UTF-8 CSV with a byte order mark, the layout
// spreadsheet tools expect for accented headers.
func WriteCSV(w io.Writer, t *Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(pad(row, len(t.Columns))); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. A leading BOM is optional.
func ReadCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = trimBOM(data)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	t := &Table{Columns: []string{}, Rows: [][]string{}}
	if len(records) == 0 {
		return t, nil
	}
	t.Columns = records[0]
	for _, row := range records[1:] {
		t.Rows = append(t.Rows, pad(row, len(t.Columns)))
	}
	return t, nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == utf8BOM[0] && data[1] == utf8BOM[1] && data[2] == utf8BOM[2] {
		return data[3:]
	}
	return data
}
