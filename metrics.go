package agglo

import (
	"sync/atomic"
	"time"
)

// Observer receives training progress. Implement it to feed a monitoring
// system; see package promobserver for a Prometheus implementation.
type Observer interface {
	// ObserveSelection is called after each feature selection with the time
	// taken and the number of candidate features scored.
	ObserveSelection(duration time.Duration, candidates int)

	// ObserveMerge is called after each merge round with the time taken and
	// the number of merges performed.
	ObserveMerge(duration time.Duration, merges int)

	// ObserveDepth is called once a depth is complete.
	ObserveDepth(r DepthReport)

	// ObserveCache reports the impurity model's cumulative computations.
	ObserveCache(computations int64)
}

// NoopObserver discards everything.
type NoopObserver struct{}

func (NoopObserver) ObserveSelection(time.Duration, int) {}
func (NoopObserver) ObserveMerge(time.Duration, int)     {}
func (NoopObserver) ObserveDepth(DepthReport)            {}
func (NoopObserver) ObserveCache(int64)                  {}

// BasicObserver keeps simple in-memory counters.
type BasicObserver struct {
	Selections       atomic.Int64
	CandidatesScored atomic.Int64
	SelectTotalNanos atomic.Int64
	MergeRounds      atomic.Int64
	Merges           atomic.Int64
	MergeTotalNanos  atomic.Int64
	Depths           atomic.Int64
	Leaves           atomic.Int64
	ImpurityComputed atomic.Int64
}

// ObserveSelection implements Observer.
func (b *BasicObserver) ObserveSelection(duration time.Duration, candidates int) {
	b.Selections.Add(1)
	b.CandidatesScored.Add(int64(candidates))
	b.SelectTotalNanos.Add(duration.Nanoseconds())
}

// ObserveMerge implements Observer.
func (b *BasicObserver) ObserveMerge(duration time.Duration, merges int) {
	b.MergeRounds.Add(1)
	b.Merges.Add(int64(merges))
	b.MergeTotalNanos.Add(duration.Nanoseconds())
}

// ObserveDepth implements Observer.
func (b *BasicObserver) ObserveDepth(r DepthReport) {
	b.Depths.Add(1)
	b.Leaves.Store(int64(r.Leaves))
}

// ObserveCache implements Observer.
func (b *BasicObserver) ObserveCache(computations int64) {
	b.ImpurityComputed.Store(computations)
}

// Stats returns a snapshot of the counters.
func (b *BasicObserver) Stats() BasicObserverStats {
	return BasicObserverStats{
		Selections:       b.Selections.Load(),
		CandidatesScored: b.CandidatesScored.Load(),
		SelectAvgNanos:   avgNanos(b.SelectTotalNanos.Load(), b.Selections.Load()),
		MergeRounds:      b.MergeRounds.Load(),
		Merges:           b.Merges.Load(),
		MergeAvgNanos:    avgNanos(b.MergeTotalNanos.Load(), b.MergeRounds.Load()),
		Depths:           b.Depths.Load(),
		Leaves:           b.Leaves.Load(),
		ImpurityComputed: b.ImpurityComputed.Load(),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicObserverStats is a snapshot of BasicObserver.
type BasicObserverStats struct {
	Selections       int64
	CandidatesScored int64
	SelectAvgNanos   int64
	MergeRounds      int64
	Merges           int64
	MergeAvgNanos    int64
	Depths           int64
	Leaves           int64
	ImpurityComputed int64
}
