package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory implementation of driven.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Snapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		documents: make(map[string]domain.Snapshot),
	}
}

// Get returns a copy of the snapshot of a document.
func (s *SnapshotStore) Get(_ context.Context, documentID string) (domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(domain.Snapshot, len(s.documents[documentID]))
	for field, rec := range s.documents[documentID] {
		snap[field] = rec
	}
	return snap, nil
}

// Put stores or replaces the hash of one field.
func (s *SnapshotStore) Put(_ context.Context, record domain.SnapshotRecord) error {
	if record.DocumentID == "" || record.Field == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.documents[record.DocumentID]
	if !ok {
		snap = make(domain.Snapshot)
		s.documents[record.DocumentID] = snap
	}
	snap[record.Field] = record
	return nil
}

// Touch refreshes last_seen of existing fields.
func (s *SnapshotStore) Touch(_ context.Context, documentID string, fields []string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.documents[documentID]
	for _, field := range fields {
		if rec, ok := snap[field]; ok {
			rec.LastSeen = seenAt
			snap[field] = rec
		}
	}
	return nil
}

// ListDocuments returns the IDs of all documents with a snapshot, sorted.
func (s *SnapshotStore) ListDocuments(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteDocument removes the snapshot of a document.
func (s *SnapshotStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, documentID)
	return nil
}
