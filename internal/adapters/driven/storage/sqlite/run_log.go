package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// runLog implements driven.RunLog.
type runLog struct {
	store *Store
}

var _ driven.RunLog = (*runLog)(nil)

const runColumns = `id, workflow_name, rule_name, input_hash, change_id, document_path, field,
	started_at, finished_at, status, message`

// Append records a dispatch attempt.
func (s *runLog) Append(ctx context.Context, run domain.Run) error {
	if run.ID == "" || run.InputHash == "" || !run.Status.IsValid() {
		return domain.ErrInvalidInput
	}

	s.store.runsMu.Lock()
	defer s.store.runsMu.Unlock()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.WorkflowName, run.RuleName, run.InputHash, nullString(run.ChangeID),
		run.DocumentPath, run.Field, formatTime(run.StartedAt), formatNullableTime(run.FinishedAt),
		string(run.Status), nullString(run.Message))
	if err != nil {
		return fmt.Errorf("appending run: %w", err)
	}
	return nil
}

// FindSuccess returns the latest successful run with the input hash that
// started at or after since. Returns nil and no error if there is none.
func (s *runLog) FindSuccess(ctx context.Context, inputHash string, since time.Time) (*domain.Run, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE input_hash = ? AND status = ? AND started_at >= ?
		ORDER BY seq DESC LIMIT 1
	`, inputHash, string(domain.RunSuccess), formatTime(since))

	run, err := scanRun(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil // Per interface: return nil and no error if not found
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns runs oldest first. With a limit, the most recent matching
// runs are returned.
func (s *runLog) List(ctx context.Context, filter domain.RunFilter) ([]domain.Run, error) {
	var where []string
	var args []interface{}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.WorkflowName != "" {
		where = append(where, "workflow_name = ?")
		args = append(args, filter.WorkflowName)
	}

	query := "SELECT " + runColumns + " FROM (SELECT * FROM runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC"
	args = append(args, limitClause(filter.Limit))

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single run row.
func scanRun(row rowScanner) (*domain.Run, error) {
	var r domain.Run
	var changeID, finishedAt, message sql.NullString
	var startedAt, status string

	if err := row.Scan(&r.ID, &r.WorkflowName, &r.RuleName, &r.InputHash, &changeID,
		&r.DocumentPath, &r.Field, &startedAt, &finishedAt, &status, &message); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	r.ChangeID = changeID.String
	r.StartedAt = parseTime(startedAt)
	r.FinishedAt = parseNullableTime(finishedAt)
	r.Status = domain.RunStatus(status)
	r.Message = message.String

	return &r, nil
}
