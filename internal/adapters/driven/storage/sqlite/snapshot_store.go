package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// snapshotStore implements driven.SnapshotStore.
type snapshotStore struct {
	store *Store
}

var _ driven.SnapshotStore = (*snapshotStore)(nil)

// Get returns the committed field hashes of a document.
// An unknown document yields an empty snapshot.
func (s *snapshotStore) Get(ctx context.Context, documentID string) (domain.Snapshot, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, path, field, value_hash, last_seen
		FROM snapshots WHERE document_id = ?
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(domain.Snapshot)
	for rows.Next() {
		var rec domain.SnapshotRecord
		var lastSeen string
		if err := rows.Scan(&rec.DocumentID, &rec.Path, &rec.Field, &rec.ValueHash, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		rec.LastSeen = parseTime(lastSeen)
		snapshot[rec.Field] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot: %w", err)
	}

	return snapshot, nil
}

// Put stores or replaces the hash of one field.
func (s *snapshotStore) Put(ctx context.Context, record domain.SnapshotRecord) error {
	if record.DocumentID == "" || record.Field == "" {
		return domain.ErrInvalidInput
	}

	s.store.snapshotsMu.Lock()
	defer s.store.snapshotsMu.Unlock()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO snapshots (document_id, path, field, value_hash, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id, field) DO UPDATE SET
			path = excluded.path,
			value_hash = excluded.value_hash,
			last_seen = excluded.last_seen
	`, record.DocumentID, record.Path, record.Field, record.ValueHash, formatTime(record.LastSeen))
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Touch refreshes last_seen of fields whose hash did not change.
func (s *snapshotStore) Touch(ctx context.Context, documentID string, fields []string, seenAt time.Time) error {
	if len(fields) == 0 {
		return nil
	}

	s.store.snapshotsMu.Lock()
	defer s.store.snapshotsMu.Unlock()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "UPDATE snapshots SET last_seen = ? WHERE document_id = ? AND field = ?")
	if err != nil {
		return fmt.Errorf("preparing snapshot touch: %w", err)
	}
	defer stmt.Close()

	seen := formatTime(seenAt)
	for _, field := range fields {
		if _, err := stmt.ExecContext(ctx, seen, documentID, field); err != nil {
			return fmt.Errorf("touching snapshot %s: %w", field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot touch: %w", err)
	}
	return nil
}

// ListDocuments returns the IDs of all documents with a snapshot.
func (s *snapshotStore) ListDocuments(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT DISTINCT document_id FROM snapshots ORDER BY document_id")
	if err != nil {
		return nil, fmt.Errorf("querying snapshot documents: %w", err)
	}
	defer rows.Close()

	var ids []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning snapshot document: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot documents: %w", err)
	}

	return ids, nil
}

// DeleteDocument removes every snapshot row of a document.
func (s *snapshotStore) DeleteDocument(ctx context.Context, documentID string) error {
	s.store.snapshotsMu.Lock()
	defer s.store.snapshotsMu.Unlock()

	_, err := s.store.db.ExecContext(ctx, "DELETE FROM snapshots WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
