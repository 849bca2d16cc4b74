package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// eventLog implements driven.EventLog.
type eventLog struct {
	store *Store
}

var _ driven.EventLog = (*eventLog)(nil)

// Append records a detected change.
func (s *eventLog) Append(ctx context.Context, change domain.Change) error {
	if change.ID == "" || change.DocumentID == "" || change.Field == "" {
		return domain.ErrInvalidInput
	}

	var oldValue interface{}
	if change.OldKnown {
		oldValue = encodeValue(change.OldValue)
	}

	s.store.eventsMu.Lock()
	defer s.store.eventsMu.Unlock()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO events (id, document_id, path, field, old_value, new_value, old_hash, new_hash, old_known, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, change.ID, change.DocumentID, change.Path, change.Field,
		oldValue, encodeValue(change.NewValue),
		change.OldHash, change.NewHash, boolToInt(change.OldKnown),
		formatTime(change.DetectedAt))
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// LatestValues returns the new value of the most recent event per field.
// Fields whose value could not be stored are omitted.
func (s *eventLog) LatestValues(ctx context.Context, documentID string) (map[string]any, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT field, new_value FROM events
		WHERE seq IN (
			SELECT MAX(seq) FROM events WHERE document_id = ? GROUP BY field
		)
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying latest values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]any)
	for rows.Next() {
		var field string
		var raw sql.NullString
		if err := rows.Scan(&field, &raw); err != nil {
			return nil, fmt.Errorf("scanning latest value: %w", err)
		}
		v, ok, err := decodeValue(nullablePtr(raw))
		if err != nil {
			return nil, err
		}
		if ok {
			values[field] = v
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating latest values: %w", err)
	}

	return values, nil
}

// List returns events oldest first. With a limit, the most recent
// matching events are returned.
func (s *eventLog) List(ctx context.Context, filter domain.EventFilter) ([]domain.Change, error) {
	var where []string
	var args []interface{}
	if filter.DocumentID != "" {
		where = append(where, "document_id = ?")
		args = append(args, filter.DocumentID)
	}
	if filter.Field != "" {
		where = append(where, "field = ?")
		args = append(args, filter.Field)
	}

	query := `
		SELECT id, document_id, path, field, old_value, new_value, old_hash, new_hash, old_known, detected_at
		FROM (
			SELECT * FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC"
	args = append(args, limitClause(filter.Limit))

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var changes []domain.Change //nolint:prealloc // size unknown from query
	for rows.Next() {
		change, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, *change)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return changes, nil
}

// scanChange scans a single event row.
func scanChange(rows *sql.Rows) (*domain.Change, error) {
	var c domain.Change
	var oldValue, newValue sql.NullString
	var oldKnown int
	var detectedAt string

	if err := rows.Scan(&c.ID, &c.DocumentID, &c.Path, &c.Field,
		&oldValue, &newValue, &c.OldHash, &c.NewHash, &oldKnown, &detectedAt); err != nil {
		return nil, fmt.Errorf("scanning event: %w", err)
	}

	var err error
	if c.OldValue, _, err = decodeValue(nullablePtr(oldValue)); err != nil {
		return nil, err
	}
	if c.NewValue, _, err = decodeValue(nullablePtr(newValue)); err != nil {
		return nil, err
	}
	c.OldKnown = oldKnown == 1
	c.DetectedAt = parseTime(detectedAt)

	return &c, nil
}

// nullablePtr returns nil for SQL NULL, otherwise a pointer to the string.
func nullablePtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
