package learning

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestTrainingRoundTrip(t *testing.T) {
	s := newTestStore(t)

	examples := []TrainingExample{
		{
			BenchmarkContext: "Analyze retail companies",
			URL:              "https://example.com",
			HTMLSnippet:      "We sell shoes",
			AIDescription:    "A shoe retailer",
			HumanDescription: "An online shoe retailer",
			Timestamp:        Timestamp(),
		},
	}
	if err := s.SaveTraining("analyze_retail_companies", examples); err != nil {
		t.Fatalf("saving training: %v", err)
	}

	got := s.LoadTraining("analyze_retail_companies")
	if len(got) != 1 {
		t.Fatalf("expected 1 example, got %d", len(got))
	}
	if got[0].URL != "https://example.com" {
		t.Errorf("unexpected URL: %q", got[0].URL)
	}
	if got[0].HumanDescription != "An online shoe retailer" {
		t.Errorf("unexpected human description: %q", got[0].HumanDescription)
	}
}

func TestLoadTrainingMissingFile(t *testing.T) {
	s := newTestStore(t)
	if got := s.LoadTraining("nothing_here"); len(got) != 0 {
		t.Errorf("expected empty training set, got %d examples", len(got))
	}
}

func TestLoadTrainingMalformedFile(t *testing.T) {
	s := newTestStore(t)
	path := s.TrainingPath("broken")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Malformed store must degrade to empty, not fail.
	if got := s.LoadTraining("broken"); len(got) != 0 {
		t.Errorf("expected empty training set for malformed file, got %d", len(got))
	}
}

func TestLoadTrainingMergesLegacyFile(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveTraining("retail", []TrainingExample{{URL: "https://a.com"}}); err != nil {
		t.Fatal(err)
	}
	legacy := filepath.Join(s.Dir(), "training_examples.json")
	if err := os.WriteFile(legacy, []byte(`[{"url": "https://b.com"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	got := s.LoadTraining("retail")
	if len(got) != 2 {
		t.Fatalf("expected 2 examples (specific + legacy), got %d", len(got))
	}
}

func TestLoadMistakePatternsBareList(t *testing.T) {
	s := newTestStore(t)
	data := `[{"pattern": "consulting", "wrong_conclusion": "retailer", "correct_conclusion": "services firm"}]`
	if err := os.WriteFile(filepath.Join(s.Dir(), "mistake_patterns.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns := s.LoadMistakePatterns()
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(patterns))
	}
	if patterns[0].CorrectConclusion != "services firm" {
		t.Errorf("unexpected correct conclusion: %q", patterns[0].CorrectConclusion)
	}
}

func TestLoadMistakePatternsWrapped(t *testing.T) {
	s := newTestStore(t)
	data := `{"common_mistakes": [{"pattern": "shop", "wrong_conclusion": "e-commerce", "correct_conclusion": "showroom only"}]}`
	if err := os.WriteFile(filepath.Join(s.Dir(), "mistake_patterns.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns := s.LoadMistakePatterns()
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(patterns))
	}
	if patterns[0].Pattern != "shop" {
		t.Errorf("unexpected pattern: %q", patterns[0].Pattern)
	}
}

func TestLoadMistakePatternsMalformed(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(filepath.Join(s.Dir(), "mistake_patterns.json"), []byte("]["), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := s.LoadMistakePatterns(); got != nil {
		t.Errorf("expected nil for malformed patterns, got %v", got)
	}
}

func TestFeedbackLogRoundTrip(t *testing.T) {
	s := newTestStore(t)

	entries := []FeedbackEntry{
		{
			TrainingExample: TrainingExample{URL: "https://example.com"},
			Discrepancy:     "AI said: 'x...' vs Human said: 'y...'",
		},
	}
	if err := s.SaveFeedbackLog(entries); err != nil {
		t.Fatalf("saving feedback log: %v", err)
	}

	got := s.LoadFeedbackLog()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Discrepancy == "" {
		t.Error("expected discrepancy to round-trip")
	}
}
