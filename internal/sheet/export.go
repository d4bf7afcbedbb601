package sheet

import (
	"fmt"
	"strings"

	"github.com/mkarlsen/benchcrawl/internal/database"
)

// SiteDownText is shown in the description column when the company's
// website could not be fetched. Readers of the sheet are non-technical,
// so the raw network error stays in the database only.
const SiteDownText = "The company's website does not work"

// Augment fills the result columns of an input table from analysis
// records, matched by URL. Rows without a matching record are left
// untouched, as are non-empty correction cells.
func Augment(t *Table, records []database.Record) {
	t.EnsureColumns(ColDescription, ColCorrection, ColSnippet, ColNavLinks, ColUISignals)

	byURL := make(map[string]*database.Record, len(records))
	for i := range records {
		url := strings.TrimSpace(records[i].URL)
		if _, seen := byURL[url]; !seen {
			byURL[url] = &records[i]
		}
	}

	for i := range t.Rows {
		url := strings.TrimSpace(t.Get(i, ColURL))
		rec, ok := byURL[url]
		if !ok {
			continue
		}
		t.Set(i, ColDescription, DisplayDescription(rec))
		if t.Get(i, ColCorrection) == "" {
			t.Set(i, ColCorrection, rec.Correction)
		}
		t.Set(i, ColSnippet, rec.HTMLSnippet)
		t.Set(i, ColNavLinks, rec.NavLinks)
		t.Set(i, ColUISignals, rec.UISignals)
	}
}

// FromRecords builds a result table from records alone, for exports
// where the original input file is no longer available.
func FromRecords(records []database.Record) *Table {
	t := &Table{Header: []string{ColURL}}
	for _, rec := range records {
		t.Rows = append(t.Rows, []string{rec.URL})
	}
	Augment(t, records)
	return t
}

// DisplayDescription renders a record's outcome for the sheet.
func DisplayDescription(rec *database.Record) string {
	switch rec.Status {
	case database.StatusFetchFailed:
		return SiteDownText
	case database.StatusModelFailed:
		return fmt.Sprintf("AI analysis failed: %s", rec.FailureReason)
	default:
		return rec.Description
	}
}
