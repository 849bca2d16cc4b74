package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/core/ports/driving"
)

// Ensure types implement the interfaces.
var _ driving.AuditService = (*AuditService)(nil)
var _ driving.RuleCatalog = (*RuleRegistry)(nil)

// AuditService exposes the durable audit tables read-only.
type AuditService struct {
	events    driven.EventLog
	runs      driven.RunLog
	artifacts driven.ArtifactStore
}

// NewAuditService creates an audit service.
func NewAuditService(events driven.EventLog, runs driven.RunLog, artifacts driven.ArtifactStore) *AuditService {
	return &AuditService{
		events:    events,
		runs:      runs,
		artifacts: artifacts,
	}
}

// Events lists detected changes, oldest first.
func (s *AuditService) Events(ctx context.Context, filter domain.EventFilter) ([]domain.Change, error) {
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", domain.ErrInvalidInput)
	}
	return s.events.List(ctx, filter)
}

// Runs lists workflow runs, oldest first.
func (s *AuditService) Runs(ctx context.Context, filter domain.RunFilter) ([]domain.Run, error) {
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", domain.ErrInvalidInput)
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown run status %q", domain.ErrInvalidInput, filter.Status)
	}
	return s.runs.List(ctx, filter)
}

// Artifacts lists recorded side-effect references, oldest first.
func (s *AuditService) Artifacts(ctx context.Context, limit int) ([]domain.Artifact, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", domain.ErrInvalidInput)
	}
	if s.artifacts == nil {
		return nil, nil
	}
	return s.artifacts.List(ctx, limit)
}
