// Package pipeline orchestrates one analysis pass: scrape, extract
// signals, compose the prompt, call the model, record the outcome.
// Processing is strictly sequential; a failing record never aborts the
// batch.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/mkarlsen/benchcrawl/internal/benchmark"
	"github.com/mkarlsen/benchcrawl/internal/database"
	"github.com/mkarlsen/benchcrawl/internal/learning"
	"github.com/mkarlsen/benchcrawl/internal/llm"
	"github.com/mkarlsen/benchcrawl/internal/prompt"
	"github.com/mkarlsen/benchcrawl/internal/scrape"
	"github.com/mkarlsen/benchcrawl/internal/signals"
)

// snippetLimit bounds the page-text excerpt stored for the feedback loop.
const snippetLimit = 500

// navLinkCap bounds the diagnostic nav-link column.
const navLinkCap = 10

// Fetcher fetches and parses one company page.
type Fetcher interface {
	Fetch(url string) *scrape.Page
}

// Result summarizes an analysis pass.
type Result struct {
	Total       int
	Described   int
	FetchFailed int
	ModelFailed int
}

// RetryResult summarizes a retry pass over failed records.
type RetryResult struct {
	Attempted int
	Fixed     int
}

// Analyzer runs the per-record pipeline.
type Analyzer struct {
	db        *database.DB
	fetcher   Fetcher
	provider  llm.Provider
	store     *learning.Store
	limiter   *rate.Limiter
	maxTokens int
}

// New creates an Analyzer. rateDelay is the enforced spacing between
// model calls.
func New(db *database.DB, fetcher Fetcher, provider llm.Provider, store *learning.Store, rateDelay time.Duration, maxTokens int) *Analyzer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rateDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(rateDelay), 1)
	}
	return &Analyzer{
		db:        db,
		fetcher:   fetcher,
		provider:  provider,
		store:     store,
		limiter:   limiter,
		maxTokens: maxTokens,
	}
}

// Run analyzes the given URLs under an already-inserted run. The model
// provider must be configured; that is a setup error, checked before any
// per-record work.
func (a *Analyzer) Run(ctx context.Context, run *database.Run, urls []string) (*Result, error) {
	if a.provider == nil {
		return nil, fmt.Errorf("no model provider configured")
	}

	training := a.store.LoadTraining(run.Benchmark)
	mistakes := a.store.LoadMistakePatterns()
	log.Printf("Loaded %d training examples, %d mistake patterns for benchmark %q",
		len(training), len(mistakes), run.Benchmark)

	res := &Result{Total: len(urls)}
	for i, url := range urls {
		log.Printf("[%d/%d] Processing: %s", i+1, len(urls), url)

		rec := a.process(ctx, run, url, training, mistakes)
		if _, err := a.db.InsertRecord(rec); err != nil {
			log.Printf("Skipping %s: %v", url, err)
			continue
		}

		switch rec.Status {
		case database.StatusOK:
			res.Described++
		case database.StatusFetchFailed:
			res.FetchFailed++
		case database.StatusModelFailed:
			res.ModelFailed++
		}
	}

	log.Printf("Analysis complete: %d described, %d fetch failures, %d model failures",
		res.Described, res.FetchFailed, res.ModelFailed)
	return res, nil
}

// RetryFailed re-processes a run's failed records in place.
func (a *Analyzer) RetryFailed(ctx context.Context, run *database.Run) (*RetryResult, error) {
	if a.provider == nil {
		return nil, fmt.Errorf("no model provider configured")
	}

	failed, err := a.db.GetFailedRecords(run.ID)
	if err != nil {
		return nil, fmt.Errorf("loading failed records: %w", err)
	}
	if len(failed) == 0 {
		return &RetryResult{}, nil
	}

	training := a.store.LoadTraining(run.Benchmark)
	mistakes := a.store.LoadMistakePatterns()

	res := &RetryResult{Attempted: len(failed)}
	for i, old := range failed {
		log.Printf("[%d/%d] Retrying: %s", i+1, len(failed), old.URL)

		rec := a.process(ctx, run, old.URL, training, mistakes)
		rec.ID = old.ID
		if err := a.db.UpdateRecordResult(rec); err != nil {
			log.Printf("Updating record for %s: %v", old.URL, err)
			continue
		}
		if rec.Status == database.StatusOK {
			res.Fixed++
		}
	}

	log.Printf("Retry complete: %d/%d fixed", res.Fixed, res.Attempted)
	return res, nil
}

// process runs the full per-record path and always returns a well-formed
// record carrying either a description or a structured failure.
func (a *Analyzer) process(ctx context.Context, run *database.Run, url string, training []learning.TrainingExample, mistakes []learning.MistakePattern) *database.Record {
	rec := &database.Record{RunID: run.ID, URL: url}

	page := a.fetcher.Fetch(url)
	if page.Signals.Err != nil {
		rec.Status = database.StatusFetchFailed
		rec.FailureReason = page.Signals.Err.Error()
		return rec
	}

	site := page.Signals
	rec.HTMLSnippet = truncate(site.TextContent, snippetLimit)
	rec.NavLinks = joinCapped(site.NavLinks, navLinkCap)
	rec.MetaDescription = site.MetaDescription

	var ui *signals.UISignals
	if run.VisualCheck != "" {
		extracted := signals.Extract(page.Doc, run.VisualCheck)
		ui = &extracted
		rec.UISignals = extracted.Summary()
	}

	promptText := prompt.Build(prompt.Input{
		Website:          site,
		Instructions:     run.Instructions,
		VisualCheck:      run.VisualCheck,
		TrainingExamples: training,
		MistakePatterns:  mistakes,
		UISignals:        ui,
	})

	if err := a.limiter.Wait(ctx); err != nil {
		rec.Status = database.StatusModelFailed
		rec.FailureReason = err.Error()
		return rec
	}

	description, err := a.provider.Generate(ctx, promptText, a.maxTokens)
	if err != nil {
		rec.Status = database.StatusModelFailed
		rec.FailureReason = err.Error()
		return rec
	}

	rec.Status = database.StatusOK
	rec.Description = description
	return rec
}

// NewRun builds a run row from instructions and the input file name.
func NewRun(id string, ins *benchmark.Instructions, inputFile string) *database.Run {
	return &database.Run{
		ID:           id,
		Benchmark:    benchmark.Identity(ins.Mission),
		Instructions: ins.Mission,
		VisualCheck:  ins.VisualCheck,
		InputFile:    inputFile,
	}
}

func joinCapped(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	return strings.Join(items, ", ")
}

// truncate keeps the first n characters, cutting on runes so stored
// snippets stay valid UTF-8.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
