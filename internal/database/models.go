package database

// Record status values. A record carries either a description (ok) or a
// structured failure reason, never an error disguised as a description.
const (
	StatusOK          = "ok"
	StatusFetchFailed = "fetch_failed"
	StatusModelFailed = "model_failed"
)

// Run is one analysis pass over an input table.
type Run struct {
	ID           string
	Benchmark    string
	Instructions string
	VisualCheck  string
	InputFile    string
	OutputFile   string
	CreatedAt    *string
}

// Record is the per-URL outcome of a run.
type Record struct {
	ID              int64
	RunID           string
	URL             string
	Status          string
	Description     string
	FailureReason   string
	Correction      string
	HTMLSnippet     string
	NavLinks        string
	MetaDescription string
	UISignals       string
	CreatedAt       *string
}

// Failed reports whether the record needs a retry pass.
func (r *Record) Failed() bool {
	return r.Status != StatusOK
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalRuns        int
	TotalRecords     int
	OKRecords        int
	FailedRecords    int
	CorrectedRecords int
}
