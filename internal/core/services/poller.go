package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/notewatch/internal/core/domain"
	"github.com/custodia-labs/notewatch/internal/core/ports/driven"
	"github.com/custodia-labs/notewatch/internal/core/ports/driving"
	"github.com/custodia-labs/notewatch/internal/logger"
)

// Ensure Poller implements the interface.
var _ driving.Poller = (*Poller)(nil)

// PollerConfig holds the collaborators of a Poller.
type PollerConfig struct {
	Source     driven.DocumentSource
	Extractor  driven.MetadataExtractor
	Snapshots  driven.SnapshotStore
	Events     driven.EventLog
	Rules      *RuleRegistry
	Dispatcher *Dispatcher

	// Trigger optionally wakes the loop before the next tick.
	Trigger driven.ChangeTrigger

	TrackedFields []string

	// Interval is the time between two cycle starts. Defaults to 1m.
	Interval time.Duration

	// Workers bounds the documents processed in parallel. Defaults to 4.
	Workers int

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Poller runs the scan, diff, evaluate and dispatch pipeline on a schedule.
// Cycles never overlap.
type Poller struct {
	source     driven.DocumentSource
	extractor  driven.MetadataExtractor
	snapshots  driven.SnapshotStore
	events     driven.EventLog
	rules      *RuleRegistry
	dispatcher *Dispatcher
	trigger    driven.ChangeTrigger
	tracked    []string
	interval   time.Duration
	workers    int
	now        func() time.Time

	cycleMu sync.Mutex

	stateMu sync.RWMutex
	state   domain.CycleState

	// cache holds the raw tracked values behind the committed snapshot,
	// keyed by document ID.
	cacheMu sync.Mutex
	cache   map[string]map[string]any

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPoller creates a poller.
func NewPoller(cfg PollerConfig) *Poller {
	p := &Poller{
		source:     cfg.Source,
		extractor:  cfg.Extractor,
		snapshots:  cfg.Snapshots,
		events:     cfg.Events,
		rules:      cfg.Rules,
		dispatcher: cfg.Dispatcher,
		trigger:    cfg.Trigger,
		tracked:    dedupe(cfg.TrackedFields),
		interval:   cfg.Interval,
		workers:    cfg.Workers,
		now:        cfg.Now,
		state:      domain.StateIdle,
		cache:      make(map[string]map[string]any),
	}
	if p.interval <= 0 {
		p.interval = time.Minute
	}
	if p.workers <= 0 {
		p.workers = 4
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Start runs a cycle immediately, then on every tick and trigger event.
// It blocks until Stop is called or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return domain.ErrPollerRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
		cancel()
		p.wg.Done()
	}()

	var wake <-chan struct{}
	if p.trigger != nil {
		ch, err := p.trigger.Events(loopCtx)
		if err != nil {
			logger.Warn("change trigger unavailable, polling only: %v", err)
		} else {
			wake = ch
		}
	}

	return p.run(ctx, loopCtx, wake)
}

// Stop ends the loop. Documents already in flight finish first.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// State returns the phase the current cycle is in.
func (p *Poller) State() domain.CycleState {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.state
}

func (p *Poller) setState(s domain.CycleState) {
	p.stateMu.Lock()
	p.state = s
	p.stateMu.Unlock()
}

// run is the main loop.
func (p *Poller) run(parent, ctx context.Context, wake <-chan struct{}) error {
	p.cycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := parent.Err(); err != nil {
				return err
			}
			return nil
		case <-ticker.C:
			p.cycle(ctx)
		case _, ok := <-wake:
			if !ok {
				wake = nil
				continue
			}
			logger.Debug("change trigger fired")
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	report, err := p.RunCycle(ctx)
	if err != nil {
		return
	}
	logger.Info("cycle done in %s: documents=%d changes=%d dispatched=%d succeeded=%d failed=%d skipped=%d removed=%d errors=%d",
		report.Duration().Round(time.Millisecond), report.Documents, report.Changes, report.Dispatched,
		report.Succeeded, report.Failed, report.Skipped, report.Removed, report.Errors)
}

// work is one document moving through a cycle.
type work struct {
	doc     domain.Document
	fields  domain.FieldMap
	changes []pendingChange
	report  domain.CycleReport
}

// pendingChange is a change that reached the Event Log, with its matches.
type pendingChange struct {
	change domain.Change
	rules  []domain.Rule
}

// RunCycle performs one pass over the notes tree. A listing failure aborts
// the cycle; every other failure is confined to its document or field.
//
// Once ctx is cancelled no new document is started. Documents already
// started run to their snapshot commit and the report is marked Interrupted.
func (p *Poller) RunCycle(ctx context.Context) (*domain.CycleReport, error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()
	defer p.setState(domain.StateIdle)

	now := p.now()
	report := &domain.CycleReport{StartedAt: now}

	p.setState(domain.StateScanning)
	docs, err := p.source.List(ctx)
	if err != nil {
		logger.Error(logger.KindScan, "listing %s: %v", p.source.Root(), err)
		return nil, fmt.Errorf("list documents: %w", err)
	}
	report.Removed = p.prune(ctx, docs)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(p.workers)
	for _, doc := range docs {
		if ctx.Err() != nil {
			mu.Lock()
			report.Interrupted = true
			mu.Unlock()
			break
		}
		g.Go(func() error {
			// A slot may free up only after the stop arrived.
			if ctx.Err() != nil {
				mu.Lock()
				report.Interrupted = true
				mu.Unlock()
				return nil
			}
			w := &work{doc: doc}
			p.process(context.WithoutCancel(ctx), w, now)
			mu.Lock()
			report.Add(w.report)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.EndedAt = p.now()
	return report, nil
}

// process runs one document through the whole pipeline.
func (p *Poller) process(ctx context.Context, w *work, now time.Time) {
	w.report.Documents = 1

	p.setState(domain.StateScanning)
	content, err := p.source.Read(ctx, w.doc)
	if err != nil {
		logger.Error(logger.KindScan, "reading %s: %v", w.doc.Path, err)
		w.report.Errors++
		return
	}
	w.fields = p.extractor.Extract(ctx, w.doc, content).Only(p.tracked)

	p.setState(domain.StateDiffing)
	if !p.diff(ctx, w, now) {
		return
	}

	p.setState(domain.StateEvaluating)
	for i := range w.changes {
		w.changes[i].rules = p.rules.Matches(w.changes[i].change)
	}

	p.setState(domain.StateDispatching)
	p.dispatch(ctx, w, now)
}

// diff compares a document with its snapshot and appends its changes to
// the Event Log. A field whose append fails is left for the next cycle.
// It returns false when the snapshot could not be loaded.
func (p *Poller) diff(ctx context.Context, w *work, now time.Time) bool {
	snapshot, err := p.snapshots.Get(ctx, w.doc.ID)
	if err != nil {
		logger.Error(logger.KindStore, "loading snapshot for %s: %v", w.doc.Path, err)
		w.report.Errors++
		return false
	}

	changes := Diff(w.doc, w.fields, p.tracked, snapshot, p.priorValues(ctx, w.doc.ID, snapshot), now)
	w.report.Changes = len(changes)

	if unchanged := Unchanged(w.fields, p.tracked, snapshot); len(unchanged) > 0 {
		if err := p.snapshots.Touch(ctx, w.doc.ID, unchanged, now); err != nil {
			logger.Error(logger.KindStore, "refreshing snapshot for %s: %v", w.doc.Path, err)
		}
		p.remember(w.doc.ID, w.fields, unchanged)
	}

	for _, change := range changes {
		if err := p.events.Append(ctx, change); err != nil {
			logger.Error(logger.KindStore, "appending event for %s#%s: %v", change.Path, change.Field, err)
			w.report.Errors++
			continue
		}
		logger.Debug("change %s#%s %s -> %s", change.Path, change.Field, short(change.OldHash), short(change.NewHash))
		w.changes = append(w.changes, pendingChange{change: change})
	}
	return true
}

// dispatch runs the matched rules of a document, one change at a time, then
// commits the new hashes. The commit happens regardless of handler outcome.
func (p *Poller) dispatch(ctx context.Context, w *work, now time.Time) {
	committed := make([]string, 0, len(w.changes))
	for _, pc := range w.changes {
		for _, rule := range pc.rules {
			res := p.dispatcher.Dispatch(ctx, rule, pc.change, w.fields)
			if res.Invoked {
				w.report.Dispatched++
			}
			switch res.Run.Status {
			case domain.RunSuccess:
				w.report.Succeeded++
			case domain.RunSkipped:
				w.report.Skipped++
			default:
				w.report.Failed++
			}
		}

		err := p.snapshots.Put(ctx, domain.SnapshotRecord{
			DocumentID: w.doc.ID,
			Path:       w.doc.Path,
			Field:      pc.change.Field,
			ValueHash:  pc.change.NewHash,
			LastSeen:   now,
		})
		if err != nil {
			logger.Error(logger.KindStore, "committing snapshot for %s#%s: %v", w.doc.Path, pc.change.Field, err)
			continue
		}
		committed = append(committed, pc.change.Field)
	}
	p.remember(w.doc.ID, w.fields, committed)
}

// prune drops snapshot rows and cached values of documents that vanished
// from the listing. It returns the number of documents removed.
func (p *Poller) prune(ctx context.Context, docs []domain.Document) int {
	known, err := p.snapshots.ListDocuments(ctx)
	if err != nil {
		logger.Error(logger.KindStore, "listing snapshots: %v", err)
		return 0
	}

	present := make(map[string]bool, len(docs))
	for _, d := range docs {
		present[d.ID] = true
	}

	removed := 0
	for _, id := range known {
		if present[id] {
			continue
		}
		if err := p.snapshots.DeleteDocument(ctx, id); err != nil {
			logger.Error(logger.KindStore, "pruning snapshot %s: %v", id, err)
			continue
		}
		p.forget(id)
		removed++
		logger.Debug("pruned vanished document %s", id)
	}
	return removed
}

// priorValues returns the raw values behind a document's snapshot. Fields
// the cache cannot vouch for are recovered from the Event Log.
func (p *Poller) priorValues(ctx context.Context, documentID string, snapshot domain.Snapshot) map[string]any {
	p.cacheMu.Lock()
	cached := p.cache[documentID]
	p.cacheMu.Unlock()
	if !p.needsRecovery(cached, snapshot) {
		return cached
	}

	values, err := p.events.LatestValues(ctx, documentID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Error(logger.KindStore, "recovering prior values for %s: %v", documentID, err)
		}
		return cached
	}

	merged := make(map[string]any, len(values)+len(cached))
	for k, v := range values {
		merged[k] = v
	}
	for k, v := range cached {
		merged[k] = v
	}
	return merged
}

// needsRecovery reports whether a tracked field has a stored non-empty hash
// but no cached raw value.
func (p *Poller) needsRecovery(cached map[string]any, snapshot domain.Snapshot) bool {
	for _, field := range p.tracked {
		h, ok := snapshot.Hash(field)
		if !ok || h == EmptyHash {
			continue
		}
		if _, ok := cached[field]; !ok {
			return true
		}
	}
	return false
}

// remember records the raw values of fields whose hash is now committed.
func (p *Poller) remember(documentID string, fields domain.FieldMap, committed []string) {
	if len(committed) == 0 {
		return
	}
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()

	prev := p.cache[documentID]
	next := make(map[string]any, len(p.tracked))
	for k, v := range prev {
		next[k] = v
	}
	for _, f := range committed {
		next[f] = fields.Get(f)
	}
	p.cache[documentID] = next
}

func (p *Poller) forget(documentID string) {
	p.cacheMu.Lock()
	delete(p.cache, documentID)
	p.cacheMu.Unlock()
}

func dedupe(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
