// Package sheet reads and writes the operator-facing CSV tables: the
// input company list and the augmented result table that carries the
// correction column back into the feedback loop.
package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Column names the tool reads and writes. Extra input columns are
// preserved untouched.
const (
	ColURL         = "URL"
	ColDescription = "AI_Description"
	ColCorrection  = "Your_Correction"
	ColSnippet     = "Html_Snippet"
	ColNavLinks    = "Nav_Links"
	ColUISignals   = "UI_Signals"
)

// Table is an in-memory CSV table with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read loads a CSV file into a Table. Short rows are padded to header
// width so cell access is always in bounds.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table %s is empty", path)
	}

	t := &Table{Header: records[0]}
	// Excel saves CSVs with a UTF-8 BOM, which would otherwise glue
	// onto the first header name and break column lookup.
	if len(t.Header) > 0 {
		t.Header[0] = strings.TrimPrefix(t.Header[0], "\ufeff")
	}
	for _, row := range records[1:] {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Write saves the table as CSV.
func (t *Table) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.Rows {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ColumnIndex returns the index of a column by name, case-insensitively,
// or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// RequireColumn returns the index of a column or an error naming it.
// A missing required column aborts the whole run.
func (t *Table) RequireColumn(name string) (int, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return 0, fmt.Errorf("table must have a column named %q", name)
	}
	return idx, nil
}

// EnsureColumns appends any missing columns and pads existing rows.
func (t *Table) EnsureColumns(names ...string) {
	for _, name := range names {
		if t.ColumnIndex(name) >= 0 {
			continue
		}
		t.Header = append(t.Header, name)
	}
	for i, row := range t.Rows {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}
}

// Get returns a cell by row index and column name, empty when the
// column is absent.
func (t *Table) Get(row int, name string) string {
	idx := t.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][idx]
}

// Set writes a cell by row index and column name; unknown columns are
// ignored.
func (t *Table) Set(row int, name, value string) {
	idx := t.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return
	}
	t.Rows[row][idx] = value
}
