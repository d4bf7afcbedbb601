package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkarlsen/benchcrawl/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedRun(t *testing.T, db *database.DB) (string, int64) {
	t.Helper()
	run := &database.Run{
		ID:           "run-1",
		Benchmark:    "analyzing_retail_e",
		Instructions: "Describe what the company sells.",
		InputFile:    "companies.csv",
	}
	if err := db.InsertRun(run); err != nil {
		t.Fatalf("failed to insert run: %v", err)
	}
	recID, err := db.InsertRecord(&database.Record{
		RunID:       run.ID,
		URL:         "https://acme.example",
		Status:      database.StatusOK,
		Description: "Sells **anvils** and hammers.",
	})
	if err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}
	return run.ID, recID
}

func TestIndexRoute(t *testing.T) {
	db := openTestDB(t)
	seedRun(t, db)
	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "run-1") {
		t.Error("expected run id in response body")
	}
	if !strings.Contains(body, "analyzing_retail_e") {
		t.Error("expected benchmark name in response body")
	}
}

func TestRunRoute(t *testing.T) {
	db := openTestDB(t)
	runID, _ := seedRun(t, db)
	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	req := httptest.NewRequest("GET", "/run/"+runID, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "https://acme.example") {
		t.Error("expected record URL in response")
	}
	// Markdown in the description must be rendered, not escaped.
	if !strings.Contains(body, "<strong>anvils</strong>") {
		t.Error("expected rendered markdown in response")
	}
	if !strings.Contains(body, "/correct/") {
		t.Error("expected correction form in response")
	}
}

func TestRunRouteUnknownID(t *testing.T) {
	db := openTestDB(t)
	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	req := httptest.NewRequest("GET", "/run/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCorrectRoute(t *testing.T) {
	db := openTestDB(t)
	runID, recID := seedRun(t, db)
	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	form := url.Values{"correction": {"Actually sells hammers only."}}
	req := httptest.NewRequest("POST", fmt.Sprintf("/correct/%d", recID),
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "/run/"+runID) {
		t.Errorf("expected redirect back to run, got %q", loc)
	}

	stored, err := db.GetRecord(recID)
	if err != nil {
		t.Fatalf("failed to load record: %v", err)
	}
	if stored.Correction != "Actually sells hammers only." {
		t.Errorf("correction not stored, got %q", stored.Correction)
	}
}

func TestCorrectRouteRejectsGet(t *testing.T) {
	db := openTestDB(t)
	_, recID := seedRun(t, db)
	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	req := httptest.NewRequest("GET", fmt.Sprintf("/correct/%d", recID), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("expected redirect, got %d", rec.Code)
	}
}

func TestFailedRecordShowsFriendlyText(t *testing.T) {
	db := openTestDB(t)
	runID, _ := seedRun(t, db)
	if _, err := db.InsertRecord(&database.Record{
		RunID:         runID,
		URL:           "https://down.example",
		Status:        database.StatusFetchFailed,
		FailureReason: "dial tcp: no such host",
	}); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	req := httptest.NewRequest("GET", "/run/"+runID, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "does not work") {
		t.Error("expected friendly failure text in response")
	}
	if !strings.Contains(body, "dial tcp: no such host") {
		t.Error("expected failure reason in response")
	}
}

func TestStaticRoute(t *testing.T) {
	db := openTestDB(t)
	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	req := httptest.NewRequest("GET", "/static/style.css", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ".record") {
		t.Error("expected CSS content")
	}
}
