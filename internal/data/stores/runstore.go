package stores

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/gitsync/internal/core/history"
	"github.com/colonyops/gitsync/internal/data/db"
)

// RunStore implements history.Store using SQLite.
type RunStore struct {
	db *db.DB
}

var _ history.Store = (*RunStore)(nil)

// NewRunStore creates a new SQLite-backed firing history store.
func NewRunStore(db *db.DB) *RunStore {
	return &RunStore{db: db}
}

// Record persists a firing. A locked database is retried briefly.
func (s *RunStore) Record(ctx context.Context, run history.Run) error {
	err := withBusyRetry(ctx, func() error {
		_, err := s.db.Conn().ExecContext(ctx,
			`INSERT INTO runs (id, task, outcome, error, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, run.Task, string(run.Outcome), run.Error, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns firings newest first.
func (s *RunStore) List(ctx context.Context, filter history.Filter) ([]history.Run, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT id, task, outcome, error, started_at, finished_at FROM runs`)
	if filter.Task != "" {
		query.WriteString(` WHERE task = ?`)
		args = append(args, filter.Task)
	}
	query.WriteString(` ORDER BY started_at DESC`)
	if filter.Limit > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Conn().QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]history.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, run)
	}

	return result, rows.Err()
}

// Last returns the most recent firing of task. When the task has never fired
// the error wraps both history.ErrNotFound and sql.ErrNoRows.
func (s *RunStore) Last(ctx context.Context, task string) (history.Run, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT id, task, outcome, error, started_at, finished_at FROM runs WHERE task = ? ORDER BY started_at DESC LIMIT 1`,
		task,
	)
	run, err := scanRun(row)
	if IsNotFoundError(err) {
		return history.Run{}, fmt.Errorf("%s: %w: %w", task, history.ErrNotFound, err)
	}
	if err != nil {
		return history.Run{}, err
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (history.Run, error) {
	var (
		run                 history.Run
		outcome             string
		startedAt, finished int64
	)
	if err := row.Scan(&run.ID, &run.Task, &outcome, &run.Error, &startedAt, &finished); err != nil {
		return history.Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Outcome = history.Outcome(outcome)
	run.StartedAt = time.Unix(0, startedAt)
	run.FinishedAt = time.Unix(0, finished)
	return run, nil
}
