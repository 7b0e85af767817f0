// Package engine owns the live dashboard state and drives the
// ingest → append → fold → broadcast pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drivepulse/drivepulse/internal/alert"
	"github.com/drivepulse/drivepulse/internal/broadcast"
	"github.com/drivepulse/drivepulse/internal/config"
	"github.com/drivepulse/drivepulse/internal/dashboard"
	"github.com/drivepulse/drivepulse/internal/event"
	"github.com/drivepulse/drivepulse/internal/metrics"
	"github.com/drivepulse/drivepulse/internal/store"
)

// ErrQueueFull reports ingest backpressure; callers should retry later.
var ErrQueueFull = errors.New("ingest queue full")

// IngestResult is the outcome of accepting a single event.
type IngestResult struct {
	EventID      string `json:"event_id"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
}

// Engine wires the validator, the event log, the reconciler, and the
// broadcast hub together.
//
// Exactly one goroutine (the fold loop) ever writes the snapshot; accepted
// events reach it through a channel, so folds are serialized structurally
// rather than by locking, and replaying the log always reproduces the same
// state. Ingest workers run validation and the durable append in parallel
// for independent events.
type Engine struct {
	store *store.Store
	hub   *broadcast.Hub
	rules atomic.Pointer[[]alert.Rule]
	conf  config.EngineConf

	pool  *ingestPool
	foldQ chan *event.Event

	mu    sync.RWMutex
	state dashboard.State

	done chan struct{}
}

// New builds an Engine, replays the event log into the initial snapshot,
// and starts the ingest pool and the fold loop. The first broadcast update
// (the replayed snapshot) is published before New returns, so subscribers
// connecting afterwards never see a gap.
func New(ctx context.Context, st *store.Store, hub *broadcast.Hub, initial dashboard.State, rules []alert.Rule, conf config.EngineConf) (*Engine, error) {
	e := &Engine{
		store: st,
		hub:   hub,
		conf:  conf,
		foldQ: make(chan *event.Event, conf.QueueDepth),
		state: initial,
		done:  make(chan struct{}),
	}
	e.rules.Store(&rules)

	if err := e.replay(ctx); err != nil {
		return nil, err
	}
	e.hub.Publish(broadcast.Update{Snapshot: e.state.Clone()})

	go e.foldLoop()
	e.pool = newIngestPool(ctx, conf.IngestWorkers, conf.QueueDepth, e.ingest)
	return e, nil
}

// replay folds every stored event into the snapshot in insertion order.
// Runs before the fold loop starts, so no serialization is needed yet.
func (e *Engine) replay(ctx context.Context) error {
	events, err := e.store.Query(ctx, "")
	if err != nil {
		return fmt.Errorf("replay event log: %w", err)
	}
	for _, ev := range events {
		e.state = dashboard.Fold(e.state, ev)
	}
	if len(events) > 0 {
		slog.Info("event log replayed", "events", len(events))
	}
	return nil
}

// IngestSync validates, appends, and queues one event, waiting for the
// result. Returns *event.ValidationError for bad input and ErrQueueFull
// under backpressure.
func (e *Engine) IngestSync(ctx context.Context, raw event.Raw) (*IngestResult, error) {
	resultC := make(chan ingestOutcome, 1)
	if !e.pool.Submit(&ingestWork{raw: raw, resultC: resultC}) {
		metrics.EventsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}

	timeout := time.Duration(e.conf.IngestTimeoutMs) * time.Millisecond
	select {
	case out := <-resultC:
		return out.res, out.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("ingest timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IngestAsync enqueues an event for background ingestion. Returns false if
// the queue is full. Validation failures are logged, not surfaced.
func (e *Engine) IngestAsync(raw event.Raw) bool {
	if !e.pool.Submit(&ingestWork{raw: raw}) {
		metrics.EventsDropped.Inc()
		return false
	}
	return true
}

// ingest is the per-worker pipeline stage: validate, append durably, then
// hand the accepted event to the fold loop.
func (e *Engine) ingest(ctx context.Context, w *ingestWork) {
	start := time.Now()
	out := e.ingestOne(ctx, w.raw)
	if out.res != nil {
		out.res.DurationMs = time.Since(start).Milliseconds()
		metrics.IngestDuration.Observe(float64(out.res.DurationMs))
	}
	if w.resultC != nil {
		w.resultC <- out
		return
	}
	if out.err != nil {
		slog.Warn("async ingest failed", "device_id", w.raw.DeviceID, "type", w.raw.Type, "err", out.err)
	}
}

func (e *Engine) ingestOne(ctx context.Context, raw event.Raw) ingestOutcome {
	ev, err := event.Validate(raw)
	if err != nil {
		var verr *event.ValidationError
		if errors.As(err, &verr) {
			metrics.EventsRejected.WithLabelValues(verr.Code).Inc()
		}
		return ingestOutcome{err: err}
	}

	inserted, err := e.store.Append(ctx, ev)
	if err != nil {
		// Fail closed: the caller must not believe an unpersisted event
		// was accepted.
		return ingestOutcome{err: fmt.Errorf("event log unavailable: %w", err)}
	}
	if !inserted {
		// Duplicate id: the stored row already folded (or will at replay).
		return ingestOutcome{res: &IngestResult{EventID: ev.ID, Deduplicated: true}}
	}
	metrics.EventsAccepted.Inc()

	select {
	case e.foldQ <- ev:
	case <-ctx.Done():
		return ingestOutcome{err: ctx.Err()}
	}
	return ingestOutcome{res: &IngestResult{EventID: ev.ID}}
}

// foldLoop is the single writer of the snapshot.
func (e *Engine) foldLoop() {
	defer close(e.done)
	for ev := range e.foldQ {
		e.mu.Lock()
		e.state = dashboard.Fold(e.state, ev)
		snap := e.state.Clone()
		e.mu.Unlock()

		metrics.FoldsApplied.WithLabelValues(string(ev.Kind())).Inc()

		fired := alert.Evaluate(*e.rules.Load(), snap)
		for _, a := range fired {
			metrics.AlertsFired.WithLabelValues(a.RuleID).Inc()
		}
		e.hub.Publish(broadcast.Update{Snapshot: snap, Alerts: fired})
	}
}

// Snapshot returns a deep copy of the current dashboard state.
func (e *Engine) Snapshot() dashboard.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// SwapRules atomically replaces the alert rule set (used on hot-reload).
func (e *Engine) SwapRules(rules []alert.Rule) {
	e.rules.Store(&rules)
}

// Rules returns the currently active alert rules.
func (e *Engine) Rules() []alert.Rule {
	return *e.rules.Load()
}

// QueueUtilization returns ingest queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the ingest pool, lets the fold loop finish queued
// events, and waits for it to exit.
func (e *Engine) Shutdown() {
	e.pool.Drain()
	close(e.foldQ)
	<-e.done
}
