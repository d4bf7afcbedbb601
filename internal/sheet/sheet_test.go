package sheet

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadTable(t *testing.T) {
	path := writeCSV(t, "Company,URL\nAcme,acme.com\nGlobex,globex.com\n")

	table, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}

	idx, err := table.RequireColumn(ColURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Rows[0][idx] != "acme.com" {
		t.Errorf("unexpected URL cell: %q", table.Rows[0][idx])
	}
}

func TestReadStripsUTF8BOM(t *testing.T) {
	path := writeCSV(t, "\ufeffURL,Company\nacme.com,Acme\n")

	table, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	idx, err := table.RequireColumn(ColURL)
	if err != nil {
		t.Fatalf("URL column not found in BOM-prefixed file: %v", err)
	}
	if idx != 0 {
		t.Errorf("expected URL at column 0, got %d", idx)
	}
	if table.Rows[0][idx] != "acme.com" {
		t.Errorf("unexpected URL cell: %q", table.Rows[0][idx])
	}
}

func TestRequireColumnMissing(t *testing.T) {
	path := writeCSV(t, "Company,Website\nAcme,acme.com\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := table.RequireColumn(ColURL); err == nil {
		t.Error("expected error for missing URL column")
	}
}

func TestColumnIndexCaseInsensitive(t *testing.T) {
	table := &Table{Header: []string{"url", "ai_description"}}
	if table.ColumnIndex(ColURL) != 0 {
		t.Error("expected case-insensitive match for URL")
	}
	if table.ColumnIndex(ColDescription) != 1 {
		t.Error("expected case-insensitive match for AI_Description")
	}
}

func TestEnsureColumnsAndRoundTrip(t *testing.T) {
	path := writeCSV(t, "Company,URL\nAcme,acme.com\n")
	table, _ := Read(path)

	table.EnsureColumns(ColDescription, ColCorrection, ColSnippet, ColNavLinks, ColUISignals)
	table.Set(0, ColDescription, "A retailer,\nwith branches.")
	table.Set(0, ColCorrection, "")

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := table.Write(out); err != nil {
		t.Fatalf("writing table: %v", err)
	}

	back, err := Read(out)
	if err != nil {
		t.Fatalf("re-reading table: %v", err)
	}
	if got := back.Get(0, ColDescription); got != "A retailer,\nwith branches." {
		t.Errorf("description did not survive quoting round trip: %q", got)
	}
	// Original columns intact.
	if got := back.Get(0, "Company"); got != "Acme" {
		t.Errorf("original column damaged: %q", got)
	}
	// Ensuring twice must not duplicate columns.
	cols := len(back.Header)
	back.EnsureColumns(ColDescription)
	if len(back.Header) != cols {
		t.Error("EnsureColumns duplicated an existing column")
	}
}

func TestReadEmptyFile(t *testing.T) {
	path := writeCSV(t, "")
	if _, err := Read(path); err == nil {
		t.Error("expected error for empty table")
	}
}

func TestShortRowsPadded(t *testing.T) {
	path := writeCSV(t, "URL,AI_Description,Your_Correction\na.com,desc\n")
	table, err := Read(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := table.Get(0, ColCorrection); got != "" {
		t.Errorf("expected empty padded cell, got %q", got)
	}
}
