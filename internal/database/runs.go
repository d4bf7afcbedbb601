package database

import "database/sql"

// InsertRun stores a new analysis run.
func (db *DB) InsertRun(run *Run) error {
	_, err := db.conn.Exec(
		`INSERT INTO runs (id, benchmark, instructions, visual_check, input_file, output_file)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Benchmark, run.Instructions, run.VisualCheck, run.InputFile, run.OutputFile,
	)
	return err
}

// GetRun returns a run by ID, or nil if not found.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, benchmark, instructions, visual_check, input_file, output_file, created_at
		FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

// GetLatestRun returns the most recently created run, or nil if none exist.
func (db *DB) GetLatestRun() (*Run, error) {
	row := db.conn.QueryRow(
		`SELECT id, benchmark, instructions, visual_check, input_file, output_file, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	)
	return scanRun(row)
}

// GetAllRuns returns all runs, newest first.
func (db *DB) GetAllRuns() ([]Run, error) {
	rows, err := db.conn.Query(
		`SELECT id, benchmark, instructions, visual_check, input_file, output_file, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Benchmark, &r.Instructions, &r.VisualCheck,
			&r.InputFile, &r.OutputFile, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SetRunOutputFile records where the run's result table was exported.
func (db *DB) SetRunOutputFile(runID, outputFile string) error {
	_, err := db.conn.Exec(`UPDATE runs SET output_file = ? WHERE id = ?`, outputFile, runID)
	return err
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Benchmark, &r.Instructions, &r.VisualCheck,
		&r.InputFile, &r.OutputFile, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
