// Package findings persists evaluation reports for audit. Each run is
// stored with its per-policy findings; the full normalized result is
// kept as JSON alongside the indexed columns so reports can be
// reconstructed exactly.
package findings

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"themis-hq/themis/pkg/policy/pipeline"
	"themis-hq/themis/pkg/policy/result"
)

// Config contains configuration for the findings store.
type Config struct {
	// Path is the SQLite database file (default: "themis.db").
	Path string `yaml:"path"`

	// RetentionDays is how long runs are kept before pruning
	// (default: 90).
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for the retention job
	// (default: "0 3 * * *", daily at 03:00).
	PruneSchedule string `yaml:"prune_schedule"`
}

// DefaultConfig returns the default findings store configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:          "themis.db",
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id              TEXT PRIMARY KEY,
	started_at          TIMESTAMP NOT NULL,
	completed_at        TIMESTAMP NOT NULL,
	aggregate_compliant INTEGER NOT NULL,
	result_count        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS findings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	policy_id   TEXT NOT NULL,
	policy_name TEXT,
	compliant   INTEGER NOT NULL,
	placeholder INTEGER NOT NULL,
	reason      TEXT,
	detail      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_policy ON findings(policy_id);
`

// Store is a SQLite-backed findings store. It implements
// pipeline.Sink.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (creating if needed) the findings database.
func NewStore(config *Config, logger *slog.Logger) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", config.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open findings database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize findings schema: %w", err)
	}

	logger.Info("findings store opened", "path", config.Path)
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one evaluation report with all its findings in a
// single transaction.
func (s *Store) Record(ctx context.Context, report *pipeline.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, completed_at, aggregate_compliant, result_count)
		 VALUES (?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt, report.CompletedAt,
		boolToInt(report.AggregateCompliant), len(report.Results),
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", report.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO findings (run_id, policy_id, policy_name, compliant, placeholder, reason, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare findings insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range report.Results {
		detail, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to serialize finding for %s: %w", res.PolicyID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, res.PolicyID, res.PolicyName,
			boolToInt(res.Compliant), boolToInt(res.Placeholder),
			res.Reason, string(detail), res.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to insert finding for %s: %w", res.PolicyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", report.RunID, err)
	}

	s.logger.Debug("evaluation run recorded",
		"run_id", report.RunID,
		"findings", len(report.Results),
	)
	return nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID              string    `json:"run_id"`
	StartedAt          time.Time `json:"started_at"`
	CompletedAt        time.Time `json:"completed_at"`
	AggregateCompliant bool      `json:"aggregate_compliant"`
	ResultCount        int       `json:"result_count"`
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, completed_at, aggregate_compliant, result_count
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var aggregate int
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.CompletedAt, &aggregate, &r.ResultCount); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.AggregateCompliant = aggregate != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun reconstructs a full report for one run, including every
// normalized result. Returns sql.ErrNoRows when the run is unknown.
func (s *Store) GetRun(ctx context.Context, runID string) (*pipeline.Report, error) {
	report := &pipeline.Report{RunID: runID}

	var aggregate int
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, completed_at, aggregate_compliant FROM runs WHERE run_id = ?`, runID).
		Scan(&report.StartedAt, &report.CompletedAt, &aggregate)
	if err != nil {
		return nil, err
	}
	report.AggregateCompliant = aggregate != 0

	rows, err := s.db.QueryContext(ctx,
		`SELECT detail FROM findings WHERE run_id = ? ORDER BY policy_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load findings for run %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("failed to scan finding row: %w", err)
		}
		var res result.PolicyResult
		if err := json.Unmarshal([]byte(detail), &res); err != nil {
			return nil, fmt.Errorf("failed to decode finding for run %s: %w", runID, err)
		}
		report.Results = append(report.Results, &res)
	}
	return report, rows.Err()
}

// Prune deletes runs (and, via cascade, their findings) that completed
// before the cutoff. It returns the number of runs removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE completed_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("pruned evaluation runs", "removed", removed, "cutoff", olderThan)
	}
	return removed, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
