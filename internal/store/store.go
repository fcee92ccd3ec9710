package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yzamari/viral-videos-sub000/internal/logging"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	topic         TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	overall_score REAL,
	passed        INTEGER,
	verdict       TEXT,
	report_path   TEXT
);
`

// #endregion schema

// #region run-record
// RunRecord is one pipeline run as persisted in the runs table. Score,
// verdict and report path are filled in when the run finishes.
type RunRecord struct {
	RunID        string
	Topic        string
	CreatedAt    time.Time
	OverallScore float64
	Passed       bool
	Verdict      string
	ReportPath   string
	Finished     bool
}

// #endregion run-record

// #region store-struct
// Store manages run records and the decision log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := logging.EnsureSchema(db); err != nil {
		return nil, fmt.Errorf("migrate decision log: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging,
// the attempt history).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region create-run
// CreateRun inserts a new run row at run start.
func (s *Store) CreateRun(runID, topic string) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, topic, created_at) VALUES (?, ?, ?)`,
		runID, topic, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", runID, err)
	}
	return nil
}

// #endregion create-run

// #region finish-run
// FinishRun records the final outcome of a run.
func (s *Store) FinishRun(runID string, overallScore float64, passed bool, verdict, reportPath string) error {
	passedInt := 0
	if passed {
		passedInt = 1
	}
	res, err := s.db.Exec(
		`UPDATE runs SET overall_score = ?, passed = ?, verdict = ?, report_path = ? WHERE run_id = ?`,
		overallScore, passedInt, verdict, reportPath, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// #endregion finish-run

// #region get-run
// GetRun retrieves a specific run by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, topic, created_at, overall_score, passed, verdict, report_path
		 FROM runs WHERE run_id = ?`, runID,
	)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, topic, created_at, overall_score, passed, verdict, report_path
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-runs

// #region scan
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var createdStr string
	var score sql.NullFloat64
	var passed sql.NullInt64
	var verdict, reportPath sql.NullString

	if err := row.Scan(&rec.RunID, &rec.Topic, &createdStr, &score, &passed, &verdict, &reportPath); err != nil {
		return RunRecord{}, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	if score.Valid {
		rec.OverallScore = score.Float64
		rec.Finished = true
	}
	if passed.Valid {
		rec.Passed = passed.Int64 == 1
	}
	if verdict.Valid {
		rec.Verdict = verdict.String
	}
	if reportPath.Valid {
		rec.ReportPath = reportPath.String
	}
	return rec, nil
}

// #endregion scan
