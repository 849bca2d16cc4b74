package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// artifactStore implements driven.ArtifactStore.
type artifactStore struct {
	store *Store
}

var _ driven.ArtifactStore = (*artifactStore)(nil)

// Save records an artifact.
func (s *artifactStore) Save(ctx context.Context, artifact domain.Artifact) error {
	if artifact.ID == "" || artifact.RunID == "" || artifact.Reference == "" {
		return domain.ErrInvalidInput
	}

	s.store.artifactsMu.Lock()
	defer s.store.artifactsMu.Unlock()

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, run_id, workflow_name, document_path, kind, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, artifact.ID, artifact.RunID, artifact.WorkflowName, artifact.DocumentPath,
		artifact.Kind, artifact.Reference, formatTime(artifact.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving artifact: %w", err)
	}
	return nil
}

// List returns artifacts oldest first. With a limit, the most recent are returned.
func (s *artifactStore) List(ctx context.Context, limit int) ([]domain.Artifact, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, run_id, workflow_name, document_path, kind, reference, created_at
		FROM (SELECT * FROM artifacts ORDER BY seq DESC LIMIT ?)
		ORDER BY seq ASC
	`, limitClause(limit))
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	return scanArtifacts(rows)
}

// ListByRun returns the artifacts produced by one run.
func (s *artifactStore) ListByRun(ctx context.Context, runID string) ([]domain.Artifact, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, run_id, workflow_name, document_path, kind, reference, created_at
		FROM artifacts WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	return scanArtifacts(rows)
}

// scanArtifacts scans and closes artifact rows.
func scanArtifacts(rows *sql.Rows) ([]domain.Artifact, error) {
	defer rows.Close()

	var artifacts []domain.Artifact //nolint:prealloc // size unknown from query
	for rows.Next() {
		var a domain.Artifact
		var createdAt string
		if err := rows.Scan(&a.ID, &a.RunID, &a.WorkflowName, &a.DocumentPath,
			&a.Kind, &a.Reference, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		artifacts = append(artifacts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artifacts: %w", err)
	}

	return artifacts, nil
}
