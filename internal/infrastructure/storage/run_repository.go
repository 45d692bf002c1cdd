package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

var runColumns = []string{
	"id", "provider", "started_at", "finished_at",
	"total", "succeeded", "failed", "cancelled", "archive_name",
}

var resultColumns = []string{
	"run_id", "item_row", "topic", "status", "error", "filename", "errors", "warnings",
}

// resultsPerInsert keeps each multi-row insert well under the bound parameter
// limits of SQLite (32766) and Postgres (65535).
const resultsPerInsert = 500

// RunRepository persists batch run history in SQLite or Postgres.
type RunRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.RunRepository = (*RunRepository)(nil)

// NewRunRepository wires a sql.DB opened for driver.
func NewRunRepository(db *sql.DB, driver string) *RunRepository {
	d, err := normalizeDriver(driver)
	if err != nil {
		d = DriverSQLite
	}
	return &RunRepository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(placeholders(d))}
}

// SaveRun stores the run and its per-item results atomically.
func (r *RunRepository) SaveRun(ctx context.Context, run domain.RunRecord) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args, err := r.sb.Insert("runs").Columns(runColumns...).Values(
		run.ID,
		string(run.Provider),
		run.StartedAt.UnixMilli(),
		run.FinishedAt.UnixMilli(),
		run.Total,
		run.Succeeded,
		run.Failed,
		boolToInt(run.Cancelled),
		run.ArchiveName,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for chunk := range slices.Chunk(run.Results, resultsPerInsert) {
		insert := r.sb.Insert("run_results").Columns(resultColumns...)
		for _, res := range chunk {
			insert = insert.Values(run.ID, res.Row, res.Topic, string(res.Status), res.Error, res.Filename, res.Errors, res.Warnings)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build results insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRun loads one run with its results in row order.
func (r *RunRepository) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	if r.db == nil {
		return domain.RunRecord{}, ports.ErrNotFound
	}

	query, args, err := r.sb.Select(runColumns...).From("runs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("build run select: %w", err)
	}
	run, err := scanRun(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunRecord{}, fmt.Errorf("run %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("scan run: %w", err)
	}

	query, args, err = r.sb.Select(resultColumns[1:]...).From("run_results").
		Where(sq.Eq{"run_id": id}).OrderBy("item_row").ToSql()
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("build results select: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.RunRecord{}, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			res    domain.ResultRecord
			status string
		)
		if err := rows.Scan(&res.Row, &res.Topic, &status, &res.Error, &res.Filename, &res.Errors, &res.Warnings); err != nil {
			return domain.RunRecord{}, fmt.Errorf("scan result: %w", err)
		}
		res.Status = domain.ResultStatus(status)
		run.Results = append(run.Results, res)
	}
	if err := rows.Err(); err != nil {
		return domain.RunRecord{}, fmt.Errorf("rows iteration: %w", err)
	}
	return run, nil
}

// ListRuns returns the newest runs first, without per-item results.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if r.db == nil {
		return nil, nil
	}

	sel := r.sb.Select(runColumns...).From("runs").OrderBy("started_at DESC", "id")
	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	}
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// PruneBefore deletes runs started before cutoff and returns how many were removed.
func (r *RunRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.db == nil {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ms := cutoff.UnixMilli()
	query, args, err := r.sb.Delete("run_results").
		Where(sq.Expr("run_id IN (SELECT id FROM runs WHERE started_at < ?)", ms)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build results delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("delete results: %w", err)
	}

	query, args, err = r.sb.Delete("runs").Where(sq.Lt{"started_at": ms}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build runs delete: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (domain.RunRecord, error) {
	var (
		run               domain.RunRecord
		provider          string
		started, finished int64
		cancelled         int
	)
	if err := row.Scan(&run.ID, &provider, &started, &finished, &run.Total, &run.Succeeded, &run.Failed, &cancelled, &run.ArchiveName); err != nil {
		return domain.RunRecord{}, err
	}
	run.Provider = domain.ProviderID(provider)
	run.StartedAt = time.UnixMilli(started).UTC()
	run.FinishedAt = time.UnixMilli(finished).UTC()
	run.Cancelled = cancelled != 0
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
