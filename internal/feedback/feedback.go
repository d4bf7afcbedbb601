// Package feedback closes the learning loop: it compares model output with
// human corrections and turns genuine discrepancies into training examples
// and feedback-log entries.
package feedback

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/mkarlsen/benchcrawl/internal/benchmark"
	"github.com/mkarlsen/benchcrawl/internal/learning"
)

// contextLimit bounds the benchmark context stored on new examples.
// Two instruction sets sharing a 200-char prefix collide on dedupe;
// accepted as-is.
const contextLimit = 200

// discrepancyLimit bounds each side of the discrepancy summary.
const discrepancyLimit = 100

// Row is one reviewed record: what the model said and what the human
// corrected it to.
type Row struct {
	URL           string
	AIDescription string
	Correction    string
	HTMLSnippet   string
}

// Result summarizes one feedback pass.
type Result struct {
	Processed     int // corrections that differed from the AI output
	Added         int // new training examples (duplicates silently dropped)
	TrainingTotal int // training examples in the benchmark file after the pass
	TrainingFile  string
}

// Processor applies corrections to the learning store.
type Processor struct {
	store *learning.Store
}

// New creates a feedback processor over the given learning store.
func New(store *learning.Store) *Processor {
	return &Processor{store: store}
}

// Process ingests reviewed rows under the given instructions. Rows without
// a correction, or whose trimmed correction equals the trimmed AI output,
// are skipped entirely. Every genuine discrepancy is logged; a training
// example is added only when no existing example matches on both URL and
// benchmark context. The training store only ever grows.
func (p *Processor) Process(instructions string, rows []Row) (*Result, error) {
	bench := benchmark.Identity(instructions)
	context := truncate(instructions, contextLimit)

	training := p.store.LoadBenchmarkTraining(bench)
	logEntries := p.store.LoadFeedbackLog()

	res := &Result{TrainingFile: p.store.TrainingPath(bench)}

	for _, row := range rows {
		correction := strings.TrimSpace(row.Correction)
		if correction == "" {
			continue
		}
		if correction == strings.TrimSpace(row.AIDescription) {
			continue
		}
		res.Processed++

		example := learning.TrainingExample{
			BenchmarkContext: context,
			URL:              row.URL,
			HTMLSnippet:      row.HTMLSnippet,
			AIDescription:    row.AIDescription,
			HumanDescription: row.Correction,
			Timestamp:        learning.Timestamp(),
		}

		if !hasExample(training, row.URL, context) {
			training = append(training, example)
			res.Added++
		}

		logEntries = append(logEntries, learning.FeedbackEntry{
			TrainingExample: example,
			Discrepancy: fmt.Sprintf("AI said: '%s...' vs Human said: '%s...'",
				truncate(row.AIDescription, discrepancyLimit),
				truncate(row.Correction, discrepancyLimit)),
		})
	}

	if res.Processed == 0 {
		log.Println("No corrections differing from AI output; stores unchanged")
		return res, nil
	}

	if err := p.store.SaveTraining(bench, training); err != nil {
		return nil, fmt.Errorf("saving training examples: %w", err)
	}
	if err := p.store.SaveFeedbackLog(logEntries); err != nil {
		return nil, fmt.Errorf("saving feedback log: %w", err)
	}

	res.TrainingTotal = len(training)
	return res, nil
}

func hasExample(examples []learning.TrainingExample, url, context string) bool {
	for _, ex := range examples {
		if ex.URL == url && ex.BenchmarkContext == context {
			return true
		}
	}
	return false
}

// truncate keeps the first n characters. Cutting on runes keeps the
// stored context valid UTF-8, so it round-trips through JSON unchanged
// and dedupe on reload still matches.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
