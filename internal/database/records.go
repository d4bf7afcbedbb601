package database

import "database/sql"

const recordColumns = `id, run_id, url, status, description, failure_reason,
	correction, html_snippet, nav_links, meta_description, ui_signals, created_at`

// InsertRecord stores the outcome for one URL. Returns the record ID.
func (db *DB) InsertRecord(r *Record) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO records (run_id, url, status, description, failure_reason,
			correction, html_snippet, nav_links, meta_description, ui_signals)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.URL, r.Status, r.Description, r.FailureReason,
		r.Correction, r.HTMLSnippet, r.NavLinks, r.MetaDescription, r.UISignals,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateRecordResult rewrites a record's outcome after a retry pass.
func (db *DB) UpdateRecordResult(r *Record) error {
	_, err := db.conn.Exec(
		`UPDATE records SET status = ?, description = ?, failure_reason = ?,
			html_snippet = ?, nav_links = ?, meta_description = ?, ui_signals = ?
		WHERE id = ?`,
		r.Status, r.Description, r.FailureReason,
		r.HTMLSnippet, r.NavLinks, r.MetaDescription, r.UISignals, r.ID,
	)
	return err
}

// UpdateCorrection stores the human correction for a record.
func (db *DB) UpdateCorrection(recordID int64, correction string) error {
	_, err := db.conn.Exec(`UPDATE records SET correction = ? WHERE id = ?`, correction, recordID)
	return err
}

// GetRecord returns a record by ID, or nil if not found.
func (db *DB) GetRecord(id int64) (*Record, error) {
	row := db.conn.QueryRow(`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecordRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetRecordsForRun returns all records of a run in insertion order.
func (db *DB) GetRecordsForRun(runID string) ([]Record, error) {
	rows, err := db.conn.Query(
		`SELECT `+recordColumns+` FROM records WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetFailedRecords returns a run's records whose status is not ok.
func (db *DB) GetFailedRecords(runID string) ([]Record, error) {
	rows, err := db.conn.Query(
		`SELECT `+recordColumns+` FROM records WHERE run_id = ? AND status != ? ORDER BY id`,
		runID, StatusOK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetCorrectedRecords returns a run's records carrying a non-empty
// human correction.
func (db *DB) GetCorrectedRecords(runID string) ([]Record, error) {
	rows, err := db.conn.Query(
		`SELECT `+recordColumns+` FROM records WHERE run_id = ? AND correction != '' ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	row := db.conn.QueryRow(`SELECT
		(SELECT COUNT(*) FROM runs),
		(SELECT COUNT(*) FROM records),
		(SELECT COUNT(*) FROM records WHERE status = ?),
		(SELECT COUNT(*) FROM records WHERE status != ?),
		(SELECT COUNT(*) FROM records WHERE correction != '')`,
		StatusOK, StatusOK,
	)
	if err := row.Scan(&s.TotalRuns, &s.TotalRecords, &s.OKRecords,
		&s.FailedRecords, &s.CorrectedRecords); err != nil {
		return nil, err
	}
	return s, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.RunID, &r.URL, &r.Status, &r.Description,
			&r.FailureReason, &r.Correction, &r.HTMLSnippet, &r.NavLinks,
			&r.MetaDescription, &r.UISignals, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecordRow(row *sql.Row) (*Record, error) {
	var r Record
	if err := row.Scan(&r.ID, &r.RunID, &r.URL, &r.Status, &r.Description,
		&r.FailureReason, &r.Correction, &r.HTMLSnippet, &r.NavLinks,
		&r.MetaDescription, &r.UISignals, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
