package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

var errStoreDown = errors.New("store unavailable")

func noopHandler() driven.WorkflowHandlerFunc {
	return func(_ context.Context, _ domain.Payload) (domain.WorkflowResult, error) {
		return domain.WorkflowResult{Success: true}, nil
	}
}

// recordingHandler counts invocations and keeps the payloads it received.
type recordingHandler struct {
	mu       sync.Mutex
	payloads []domain.Payload
	result   domain.WorkflowResult
	err      error
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{result: domain.WorkflowResult{Success: true}}
}

func (h *recordingHandler) Run(_ context.Context, payload domain.Payload) (domain.WorkflowResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads = append(h.payloads, payload)
	return h.result, h.err
}

func (h *recordingHandler) calls() []domain.Payload {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Payload(nil), h.payloads...)
}

// mockSnapshotStore implements driven.SnapshotStore for testing.
type mockSnapshotStore struct {
	mu      sync.RWMutex
	records map[string]domain.Snapshot
	getErr  error
	putErr  error
	listErr error
}

func newMockSnapshotStore() *mockSnapshotStore {
	return &mockSnapshotStore{records: make(map[string]domain.Snapshot)}
}

func (m *mockSnapshotStore) Get(_ context.Context, documentID string) (domain.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	snap := make(domain.Snapshot, len(m.records[documentID]))
	for k, v := range m.records[documentID] {
		snap[k] = v
	}
	return snap, nil
}

func (m *mockSnapshotStore) Put(_ context.Context, record domain.SnapshotRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	if m.records[record.DocumentID] == nil {
		m.records[record.DocumentID] = make(domain.Snapshot)
	}
	m.records[record.DocumentID][record.Field] = record
	return nil
}

func (m *mockSnapshotStore) Touch(_ context.Context, documentID string, fields []string, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	for _, f := range fields {
		if rec, ok := m.records[documentID][f]; ok {
			rec.LastSeen = seenAt
			m.records[documentID][f] = rec
		}
	}
	return nil
}

func (m *mockSnapshotStore) ListDocuments(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockSnapshotStore) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, documentID)
	return nil
}

func (m *mockSnapshotStore) setPutErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

// mockEventLog implements driven.EventLog for testing.
type mockEventLog struct {
	mu        sync.RWMutex
	events    []domain.Change
	appendErr error
	fieldErr  map[string]error
	latestErr error
}

func newMockEventLog() *mockEventLog {
	return &mockEventLog{fieldErr: make(map[string]error)}
}

func (m *mockEventLog) Append(_ context.Context, change domain.Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	if err := m.fieldErr[change.Field]; err != nil {
		return err
	}
	m.events = append(m.events, change)
	return nil
}

func (m *mockEventLog) LatestValues(_ context.Context, documentID string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	values := make(map[string]any)
	for _, e := range m.events {
		if e.DocumentID == documentID {
			values[e.Field] = e.NewValue
		}
	}
	return values, nil
}

func (m *mockEventLog) List(_ context.Context, filter domain.EventFilter) ([]domain.Change, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Change
	for _, e := range m.events {
		if filter.DocumentID != "" && e.DocumentID != filter.DocumentID {
			continue
		}
		if filter.Field != "" && e.Field != filter.Field {
			continue
		}
		out = append(out, e)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}

func (m *mockEventLog) setAppendErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendErr = err
}

// setFieldAppendErr fails appends for one field only.
func (m *mockEventLog) setFieldAppendErr(field string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fieldErr, field)
		return
	}
	m.fieldErr[field] = err
}

func (m *mockEventLog) all() []domain.Change {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Change(nil), m.events...)
}

// mockRunLog implements driven.RunLog for testing.
type mockRunLog struct {
	mu        sync.RWMutex
	runs      []domain.Run
	findErr   error
	appendErr error
}

func newMockRunLog() *mockRunLog {
	return &mockRunLog{}
}

func (m *mockRunLog) Append(_ context.Context, run domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockRunLog) FindSuccess(_ context.Context, inputHash string, since time.Time) (*domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := range m.runs {
		r := m.runs[i]
		if r.InputHash == inputHash && r.Status == domain.RunSuccess && !r.StartedAt.Before(since) {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRunLog) List(_ context.Context, filter domain.RunFilter) ([]domain.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Run
	for _, r := range m.runs {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.WorkflowName != "" && r.WorkflowName != filter.WorkflowName {
			continue
		}
		out = append(out, r)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out, nil
}

func (m *mockRunLog) all() []domain.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Run(nil), m.runs...)
}

func (m *mockRunLog) byStatus(status domain.RunStatus) []domain.Run {
	var out []domain.Run
	for _, r := range m.all() {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// mockArtifactStore implements driven.ArtifactStore for testing.
type mockArtifactStore struct {
	mu        sync.RWMutex
	artifacts []domain.Artifact
	saveErr   error
}

func (m *mockArtifactStore) Save(_ context.Context, artifact domain.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.artifacts = append(m.artifacts, artifact)
	return nil
}

func (m *mockArtifactStore) List(_ context.Context, limit int) ([]domain.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]domain.Artifact(nil), m.artifacts...)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *mockArtifactStore) ListByRun(_ context.Context, runID string) ([]domain.Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Artifact
	for _, a := range m.artifacts {
		if a.RunID == runID {
			out = append(out, a)
		}
	}
	return out, nil
}

// mockSource implements driven.DocumentSource over an in-memory tree.
type mockSource struct {
	mu      sync.RWMutex
	files   map[string]string
	listErr error
	readErr map[string]error
}

func newMockSource() *mockSource {
	return &mockSource{files: make(map[string]string), readErr: make(map[string]error)}
}

func (m *mockSource) Root() string { return "/notes" }

func (m *mockSource) List(_ context.Context) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	docs := make([]domain.Document, 0, len(paths))
	for _, p := range paths {
		docs = append(docs, domain.Document{ID: "doc-" + p, Path: p, AbsPath: "/notes/" + p})
	}
	return docs, nil
}

func (m *mockSource) Read(_ context.Context, doc domain.Document) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.readErr[doc.Path]; err != nil {
		return nil, err
	}
	content, ok := m.files[doc.Path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return []byte(content), nil
}

func (m *mockSource) write(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

func (m *mockSource) remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

// lineExtractor implements driven.MetadataExtractor with "key: value" lines,
// keeping the service tests independent of the YAML extractor.
type lineExtractor struct{}

func (lineExtractor) Extract(_ context.Context, _ domain.Document, content []byte) domain.FieldMap {
	fields := domain.FieldMap{}
	for _, line := range strings.Split(string(content), "\n") {
		key, val, ok := strings.Cut(line, ":")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" {
			continue
		}
		if val == "" {
			fields[key] = nil
			continue
		}
		fields[key] = val
	}
	return fields
}

// Ensure mocks implement interfaces
var _ driven.SnapshotStore = (*mockSnapshotStore)(nil)
var _ driven.EventLog = (*mockEventLog)(nil)
var _ driven.RunLog = (*mockRunLog)(nil)
var _ driven.ArtifactStore = (*mockArtifactStore)(nil)
var _ driven.DocumentSource = (*mockSource)(nil)
var _ driven.MetadataExtractor = lineExtractor{}
var _ driven.WorkflowHandler = (*recordingHandler)(nil)
