package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mkarlsen/benchcrawl/internal/benchmark"
	"github.com/mkarlsen/benchcrawl/internal/config"
	"github.com/mkarlsen/benchcrawl/internal/database"
	"github.com/mkarlsen/benchcrawl/internal/feedback"
	"github.com/mkarlsen/benchcrawl/internal/learning"
	"github.com/mkarlsen/benchcrawl/internal/llm"
	"github.com/mkarlsen/benchcrawl/internal/pipeline"
	"github.com/mkarlsen/benchcrawl/internal/scrape"
	"github.com/mkarlsen/benchcrawl/internal/server"
	"github.com/mkarlsen/benchcrawl/internal/sheet"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "benchcrawl",
	Short:   "Adaptive company website analysis",
	Long:    "Benchcrawl scrapes company websites, describes them with an LLM, and learns from human corrections.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("benchcrawl", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/benchcrawl/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the model provider and API keys.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Records:")
		fmt.Printf("  Total: %d\n", stats.TotalRecords)
		fmt.Printf("  Described: %d\n", stats.OKRecords)
		fmt.Printf("  Failed: %d\n", stats.FailedRecords)
		fmt.Printf("  Corrected: %d\n", stats.CorrectedRecords)
		fmt.Printf("\nRuns: %d\n", stats.TotalRuns)

		latest, _ := db.GetLatestRun()
		if latest != nil {
			fmt.Printf("Latest run: %s (benchmark %s)\n", latest.ID, latest.Benchmark)
		}
		return nil
	},
}

// --- analyze command ---

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input.csv]",
	Short: "Analyze the companies listed in a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]

		ins, err := benchmark.LoadInstructions(cfg.Files.Instructions)
		if err != nil {
			return err
		}

		table, err := sheet.Read(inputFile)
		if err != nil {
			return err
		}
		urlIdx, err := table.RequireColumn(sheet.ColURL)
		if err != nil {
			return err
		}
		var urls []string
		for _, row := range table.Rows {
			urls = append(urls, strings.TrimSpace(row[urlIdx]))
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		run := pipeline.NewRun(uuid.NewString(), ins, inputFile)
		if err := db.InsertRun(run); err != nil {
			return fmt.Errorf("creating run: %w", err)
		}
		fmt.Printf("Run %s, benchmark %q, %d companies\n", run.ID, run.Benchmark, len(urls))

		analyzer, err := newAnalyzer(db)
		if err != nil {
			return err
		}
		result, err := analyzer.Run(context.Background(), run, urls)
		if err != nil {
			return err
		}

		outputFile := analyzeOutput
		if outputFile == "" {
			outputFile = outputPathFor(inputFile)
		}
		if err := exportRunWithTable(db, run, table, outputFile); err != nil {
			return err
		}

		fmt.Println("\nAnalysis complete:")
		fmt.Printf("  Described: %d\n", result.Described)
		fmt.Printf("  Website failures: %d\n", result.FetchFailed)
		fmt.Printf("  Model failures: %d\n", result.ModelFailed)
		fmt.Printf("  Output: %s\n", outputFile)
		if result.FetchFailed+result.ModelFailed > 0 {
			fmt.Println("\nRe-run failures with: benchcrawl retry")
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Output CSV path (default <input>_analyzed.csv)")
}

// --- retry command ---

var retryCmd = &cobra.Command{
	Use:   "retry [run-id]",
	Short: "Re-process a run's failed records (latest run by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := resolveRun(db, args)
		if err != nil {
			return err
		}

		analyzer, err := newAnalyzer(db)
		if err != nil {
			return err
		}
		result, err := analyzer.RetryFailed(context.Background(), run)
		if err != nil {
			return err
		}
		if result.Attempted == 0 {
			fmt.Println("No failed records to retry.")
			return nil
		}
		fmt.Printf("Retried %d records, %d now described.\n", result.Attempted, result.Fixed)

		if run.OutputFile != "" {
			if err := exportRunFile(db, run, run.OutputFile); err != nil {
				return err
			}
			fmt.Printf("Updated output: %s\n", run.OutputFile)
		}
		return nil
	},
}

// --- export command ---

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Write a run's results to CSV (latest run by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := resolveRun(db, args)
		if err != nil {
			return err
		}

		target := exportPath
		if target == "" {
			target = run.OutputFile
		}
		if target == "" {
			target = outputPathFor(run.InputFile)
		}
		if err := exportRunFile(db, run, target); err != nil {
			return err
		}
		fmt.Printf("Exported run %s to %s\n", run.ID, target)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output CSV path")
}

// --- feedback command ---

var feedbackCmd = &cobra.Command{
	Use:   "feedback [reviewed.csv]",
	Short: "Learn from corrections in a reviewed CSV, or from the review UI",
	Long: "Reads the Your_Correction column of a reviewed CSV and turns filled-in\n" +
		"corrections into training examples for the current benchmark. Without a\n" +
		"file argument, corrections entered in the review UI are used instead.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ins, err := benchmark.LoadInstructions(cfg.Files.Instructions)
		if err != nil {
			return err
		}

		var rows []feedback.Row
		if len(args) == 1 {
			rows, err = feedbackRowsFromCSV(args[0])
		} else {
			rows, err = feedbackRowsFromDB()
		}
		if err != nil {
			return err
		}

		processor := feedback.New(learning.NewStore(learningDir()))
		result, err := processor.Process(ins.Mission, rows)
		if err != nil {
			return err
		}

		if result.Processed == 0 {
			fmt.Println("No new corrections found.")
			return nil
		}
		fmt.Printf("Processed %d corrections, %d new training examples.\n", result.Processed, result.Added)
		fmt.Printf("Benchmark now has %d examples in %s\n", result.TrainingTotal, result.TrainingFile)
		return nil
	},
}

func feedbackRowsFromCSV(path string) ([]feedback.Row, error) {
	table, err := sheet.Read(path)
	if err != nil {
		return nil, err
	}
	if _, err := table.RequireColumn(sheet.ColURL); err != nil {
		return nil, err
	}
	if _, err := table.RequireColumn(sheet.ColCorrection); err != nil {
		return nil, err
	}

	var rows []feedback.Row
	for i := range table.Rows {
		rows = append(rows, feedback.Row{
			URL:           table.Get(i, sheet.ColURL),
			AIDescription: table.Get(i, sheet.ColDescription),
			Correction:    table.Get(i, sheet.ColCorrection),
			HTMLSnippet:   table.Get(i, sheet.ColSnippet),
		})
	}
	return rows, nil
}

func feedbackRowsFromDB() ([]feedback.Row, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	run, err := db.GetLatestRun()
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no runs in database; analyze a CSV first")
	}

	records, err := db.GetCorrectedRecords(run.ID)
	if err != nil {
		return nil, err
	}
	var rows []feedback.Row
	for _, rec := range records {
		rows = append(rows, feedback.Row{
			URL:           rec.URL,
			AIDescription: rec.Description,
			Correction:    rec.Correction,
			HTMLSnippet:   rec.HTMLSnippet,
		})
	}
	return rows, nil
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local review UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting review UI at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run the review UI on")
}

// --- helpers ---

func newAnalyzer(db *database.DB) (*pipeline.Analyzer, error) {
	provider := llm.CreateProvider(
		cfg.Model.Provider,
		cfg.Model.Name, cfg.Model.APIKeyEnv,
		cfg.Model.OpenAIModel, cfg.Model.OpenAIKeyEnv,
		cfg.Model.Temperature,
	)
	if provider == nil {
		return nil, fmt.Errorf("no model provider configured; set the API key named in the config")
	}

	scraper := scrape.New(
		time.Duration(cfg.Scrape.TimeoutSecs)*time.Second,
		cfg.Scrape.MaxRetries,
		cfg.Scrape.TextLimit,
	)
	store := learning.NewStore(learningDir())
	rateDelay := time.Duration(cfg.Model.RateDelaySecs) * time.Second
	return pipeline.New(db, scraper, provider, store, rateDelay, cfg.Model.MaxTokens), nil
}

// resolveRun picks the run named on the command line, or the latest one.
func resolveRun(db *database.DB, args []string) (*database.Run, error) {
	if len(args) == 1 {
		run, err := db.GetRun(args[0])
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, fmt.Errorf("run %s not found", args[0])
		}
		return run, nil
	}
	run, err := db.GetLatestRun()
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no runs in database; analyze a CSV first")
	}
	return run, nil
}

// exportRunFile re-reads the run's input file when it still exists, so
// extra operator columns survive the export. Otherwise the table is
// rebuilt from the database alone.
func exportRunFile(db *database.DB, run *database.Run, path string) error {
	table, err := sheet.Read(run.InputFile)
	if err != nil {
		records, recErr := db.GetRecordsForRun(run.ID)
		if recErr != nil {
			return recErr
		}
		table = sheet.FromRecords(records)
		return writeAndRemember(db, run, table, path)
	}
	return exportRunWithTable(db, run, table, path)
}

func exportRunWithTable(db *database.DB, run *database.Run, table *sheet.Table, path string) error {
	records, err := db.GetRecordsForRun(run.ID)
	if err != nil {
		return err
	}
	sheet.Augment(table, records)
	return writeAndRemember(db, run, table, path)
}

func writeAndRemember(db *database.DB, run *database.Run, table *sheet.Table, path string) error {
	if err := table.Write(path); err != nil {
		return err
	}
	return db.SetRunOutputFile(run.ID, path)
}

func outputPathFor(inputFile string) string {
	ext := filepath.Ext(inputFile)
	return strings.TrimSuffix(inputFile, ext) + "_analyzed.csv"
}

func learningDir() string {
	dir := cfg.Files.LearningDir
	if dir == "" {
		dir = "learning"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.GetDataDir(), dir)
	}
	return dir
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "benchcrawl.db")
	return database.Open(dbPath)
}
