package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// SaveRun persists a run and its task records in one transaction. Saves are
// idempotent: re-saving a run id replaces its rows.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec RunRecord) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, request, started_at, finished_at, total, succeeded, failed, unreachable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			request = excluded.request,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			total = excluded.total,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			unreachable = excluded.unreachable
	`, rec.ID, rec.Request, rec.StartedAt, rec.FinishedAt, rec.Total, rec.Succeeded, rec.Failed, rec.Unreachable)
	if err != nil {
		return fmt.Errorf("upserting run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_tasks WHERE run_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clearing old task rows: %w", err)
	}

	for _, t := range rec.Tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_tasks (run_id, task_id, content, assignee, status, attempts, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, t.ID, t.Content, t.Assignee, t.Status, t.Attempts, t.Error)
		if err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}

	return nil
}

// GetRun loads one run with its task records.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	var rec RunRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, request, started_at, finished_at, total, succeeded, failed, unreachable
		FROM runs WHERE id = ?
	`, runID).Scan(&rec.ID, &rec.Request, &rec.StartedAt, &rec.FinishedAt,
		&rec.Total, &rec.Succeeded, &rec.Failed, &rec.Unreachable)
	if err == sql.ErrNoRows {
		return RunRecord{}, fmt.Errorf("run %q not found", runID)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("querying run: %w", err)
	}

	tasks, err := s.loadTasks(ctx, runID)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Tasks = tasks

	return rec, nil
}

// ListRuns returns the most recent runs, newest first, without task rows.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request, started_at, finished_at, total, succeeded, failed, unreachable
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.ID, &rec.Request, &rec.StartedAt, &rec.FinishedAt,
			&rec.Total, &rec.Succeeded, &rec.Failed, &rec.Unreachable); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}

func (s *SQLiteStore) loadTasks(ctx context.Context, runID string) ([]TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, task_id, content, assignee, status, attempts, COALESCE(error, '')
		FROM run_tasks WHERE run_id = ? ORDER BY task_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run tasks: %w", err)
	}
	defer rows.Close()

	var tasks []TaskRecord
	for rows.Next() {
		var t TaskRecord
		if err := rows.Scan(&t.RunID, &t.ID, &t.Content, &t.Assignee, &t.Status, &t.Attempts, &t.Error); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}
