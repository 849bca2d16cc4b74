package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is an in-memory implementation of driven.ArtifactStore.
type ArtifactStore struct {
	mu        sync.RWMutex
	artifacts []domain.Artifact
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{}
}

// Save records an artifact.
func (s *ArtifactStore) Save(_ context.Context, artifact domain.Artifact) error {
	if artifact.ID == "" || artifact.RunID == "" || artifact.Reference == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, artifact)
	return nil
}

// List returns artifacts oldest first. With a limit, the most recent are returned.
func (s *ArtifactStore) List(_ context.Context, limit int) ([]domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(append([]domain.Artifact(nil), s.artifacts...), limit), nil
}

// ListByRun returns the artifacts produced by one run.
func (s *ArtifactStore) ListByRun(_ context.Context, runID string) ([]domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Artifact
	for _, a := range s.artifacts {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}
