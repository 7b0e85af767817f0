// Package aggregate computes on-demand numeric summaries over the event log.
package aggregate

import (
	"context"

	"github.com/drivepulse/drivepulse/internal/event"
	"github.com/drivepulse/drivepulse/internal/store"
)

// Result is the outcome of one aggregation run. An empty match set is a
// valid result ({count: 0, averages: {}}), not an error.
type Result struct {
	Count    int                `json:"count"`
	Averages map[string]float64 `json:"averages"`
}

// Aggregator scans the event log and reports per-field arithmetic means.
type Aggregator struct {
	store *store.Store
}

// New creates an Aggregator reading from s.
func New(s *store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Aggregate scans stored events, optionally filtered by type, and averages
// every numeric payload field by name. Non-numeric occurrences of a field
// are skipped per occurrence; a field with no numeric occurrence at all is
// omitted from Averages. Sums and counts commute, so the result does not
// depend on event ordering.
func (a *Aggregator) Aggregate(ctx context.Context, typeFilter string) (Result, error) {
	events, err := a.store.Query(ctx, typeFilter)
	if err != nil {
		return Result{}, err
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, ev := range events {
		for key, raw := range ev.Payload {
			if v, ok := event.Float(raw); ok {
				sums[key] += v
				counts[key]++
			}
		}
	}

	averages := make(map[string]float64, len(sums))
	for key, sum := range sums {
		averages[key] = sum / float64(counts[key])
	}
	return Result{Count: len(events), Averages: averages}, nil
}
