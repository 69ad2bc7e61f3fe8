package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Kind distinguishes pipeline runs from standalone publish runs.
type Kind string

const (
	KindPipeline Kind = "pipeline"
	KindPublish  Kind = "publish"
)

// Status is the terminal outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one ledger row.
type Run struct {
	RunID        string    `json:"run_id"`
	Kind         Kind      `json:"kind"`
	SourceID     string    `json:"source_id,omitempty"`
	Title        string    `json:"title,omitempty"`
	Speaker      string    `json:"speaker,omitempty"`
	SermonDate   string    `json:"sermon_date,omitempty"`
	Status       Status    `json:"status"`
	FailedStep   string    `json:"failed_step,omitempty"`
	ErrorLabel   string    `json:"error_label,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	FinalPath    string    `json:"final_path,omitempty"`
	RemoteName   string    `json:"remote_name,omitempty"`
	Warning      string    `json:"warning,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Duration returns the wall time the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Recorder is implemented by Store; pipeline and publish depend on it so the
// ledger stays optional.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Record inserts or replaces the row for run.RunID.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.RunID == "" {
		return errors.New("history: run id is required")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO runs (
                run_id, kind, source_id, title, speaker, sermon_date, status,
                failed_step, error_label, error_message, final_path, remote_name,
                warning, started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, string(run.Kind), run.SourceID, run.Title, run.Speaker, run.SermonDate,
			string(run.Status), run.FailedStep, run.ErrorLabel, run.ErrorMessage,
			run.FinalPath, run.RemoteName, run.Warning,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.FinishedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("record run %s: %w", run.RunID, err)
		}
		return nil
	})
}

const selectColumns = `run_id, kind, source_id, title, speaker, sermon_date, status,
    failed_step, error_label, error_message, final_path, remote_name, warning,
    started_at, finished_at`

// Recent returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + selectColumns + " FROM runs ORDER BY finished_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run with id, or (Run{}, false) when absent.
func (s *Store) Get(ctx context.Context, id string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM runs WHERE run_id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// LastPublished returns the newest completed run that delivered remoteName.
func (s *Store) LastPublished(ctx context.Context, remoteName string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM runs WHERE remote_name = ? AND status = ? ORDER BY finished_at DESC LIMIT 1",
		remoteName, string(StatusCompleted))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		kind, status      string
		started, finished string
	)
	if err := row.Scan(
		&run.RunID, &kind, &run.SourceID, &run.Title, &run.Speaker, &run.SermonDate, &status,
		&run.FailedStep, &run.ErrorLabel, &run.ErrorMessage, &run.FinalPath, &run.RemoteName,
		&run.Warning, &started, &finished,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = Kind(kind)
	run.Status = Status(status)
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	return run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
