// Package learning persists what the human reviewer has taught the tool:
// per-benchmark training examples, global mistake patterns, and the
// append-only feedback log. Everything is plain JSON on disk so the
// operator can inspect and hand-edit it.
package learning

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// TrainingExample is a human-corrected worked example, replayed in future
// prompts for the same benchmark. Append-only; identity for deduplication
// is the (URL, BenchmarkContext) pair.
type TrainingExample struct {
	BenchmarkContext string `json:"benchmark_context"`
	URL              string `json:"url"`
	HTMLSnippet      string `json:"html_snippet"`
	AIDescription    string `json:"ai_description"`
	HumanDescription string `json:"human_description"`
	Timestamp        string `json:"timestamp"`
}

// MistakePattern documents a recurring model error and the prescribed
// correct conclusion. Patterns are global, not benchmark-scoped.
type MistakePattern struct {
	Pattern           string `json:"pattern"`
	WrongConclusion   string `json:"wrong_conclusion"`
	CorrectConclusion string `json:"correct_conclusion"`
}

// FeedbackEntry is a diagnostic record of one processed correction.
// Unlike training examples, entries are never deduplicated.
type FeedbackEntry struct {
	TrainingExample
	Discrepancy string `json:"discrepancy"`
}

const (
	mistakeFile     = "mistake_patterns.json"
	feedbackLogFile = "feedback_log.json"
	legacyTraining  = "training_examples.json"
)

// Store is the file-backed learning state, rooted at one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created lazily
// on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// TrainingPath returns the training file path for a benchmark identity.
func (s *Store) TrainingPath(benchmark string) string {
	return filepath.Join(s.dir, "training_"+benchmark+".json")
}

// LoadTraining loads training examples for a benchmark identity, merging
// in the legacy generic training file when present. A malformed file is
// treated as empty with a warning, never as a fatal error.
func (s *Store) LoadTraining(benchmark string) []TrainingExample {
	examples := s.LoadBenchmarkTraining(benchmark)
	examples = append(examples, loadJSONList[TrainingExample](filepath.Join(s.dir, legacyTraining))...)
	return examples
}

// LoadBenchmarkTraining loads only the benchmark-specific training file,
// without the legacy merge. The feedback loop appends to this file, so it
// must dedupe against exactly this file's contents.
func (s *Store) LoadBenchmarkTraining(benchmark string) []TrainingExample {
	return loadJSONList[TrainingExample](s.TrainingPath(benchmark))
}

// SaveTraining writes the full training list for a benchmark identity.
func (s *Store) SaveTraining(benchmark string, examples []TrainingExample) error {
	return saveJSON(s.TrainingPath(benchmark), examples)
}

// LoadMistakePatterns loads the global mistake pattern list. Both a bare
// list and a {"common_mistakes": [...]} wrapper are accepted.
func (s *Store) LoadMistakePatterns() []MistakePattern {
	path := filepath.Join(s.dir, mistakeFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var wrapped struct {
		CommonMistakes []MistakePattern `json:"common_mistakes"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.CommonMistakes != nil {
		return wrapped.CommonMistakes
	}

	var list []MistakePattern
	if err := json.Unmarshal(data, &list); err != nil {
		log.Printf("Warning: malformed mistake patterns in %s: %v", path, err)
		return nil
	}
	return list
}

// LoadFeedbackLog loads the global feedback log.
func (s *Store) LoadFeedbackLog() []FeedbackEntry {
	return loadJSONList[FeedbackEntry](filepath.Join(s.dir, feedbackLogFile))
}

// SaveFeedbackLog writes the full feedback log.
func (s *Store) SaveFeedbackLog(entries []FeedbackEntry) error {
	return saveJSON(filepath.Join(s.dir, feedbackLogFile), entries)
}

// Timestamp returns the ISO timestamp recorded on new training examples.
func Timestamp() string {
	return time.Now().Format(time.RFC3339)
}

func loadJSONList[T any](path string) []T {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		log.Printf("Warning: malformed JSON in %s, treating as empty: %v", path, err)
		return nil
	}
	return list
}

func saveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating learning directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
