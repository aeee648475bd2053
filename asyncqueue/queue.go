package asyncqueue

import (
	"time"

	"github.com/iotaledger/stream.go/future"
	"github.com/iotaledger/stream.go/lo"
	"github.com/iotaledger/stream.go/syncutils"
)

// Queue is a thread-safe FIFO of (state, pending result) entries that keeps track of how many of its entries are still
// outstanding (not terminal, yet). Producers append entries without ever blocking while a consumer periodically drains
// the terminal entries from the front in bounded batches, optionally waiting a bounded amount of time for enough
// entries to terminate.
//
// The outstanding count is exposed as a gauge so an external backpressure controller can decide whether to keep
// admitting new work.
type Queue[S any, V any] struct {
	// slots contains the entries in arrival order.
	slots []*slot[S, V]

	// pendingCounter keeps track of the number of outstanding entries.
	pendingCounter *syncutils.Counter

	// capacityBound is the maximum tolerated queue population before Dequeue starts waiting for terminations.
	capacityBound int

	// maxWait is the upper bound on the time a single Dequeue call may block.
	maxWait time.Duration

	// maxBatch is the maximum number of entries returned by a single Dequeue call.
	maxBatch int

	// mutex is used to synchronize access to the slots.
	mutex syncutils.RWMutex
}

// Entry pairs an opaque caller-supplied state with the pending result of an asynchronous computation. The state is
// never inspected by the queue, it is only carried through to the drained Outcome.
type Entry[S any, V any] struct {
	State  S
	Result *future.Future[V]
}

// Outcome is a drained entry. Err is set if the underlying computation failed (an entry-level failure is data, not an
// error of the drain itself).
type Outcome[S any, V any] struct {
	State S
	Value V
	Err   error
}

// New creates a new Queue with the given bounds.
func New[S any, V any](capacityBound int, maxWait time.Duration, maxBatch int) *Queue[S, V] {
	return &Queue[S, V]{
		pendingCounter: syncutils.NewCounter(),
		capacityBound:  capacityBound,
		maxWait:        maxWait,
		maxBatch:       maxBatch,
	}
}

// Add appends the given entry to the back of the queue (it never refuses insertion). It returns true if the result was
// still outstanding at the moment of insertion, in which case the outstanding count was increased and its decrease was
// arranged for the moment the result terminates.
func (q *Queue[S, V]) Add(state S, result *future.Future[V]) (wasOutstanding bool) {
	q.mutex.Lock()
	q.slots = append(q.slots, &slot[S, V]{state: state, result: result})
	q.mutex.Unlock()

	return q.trackOutstanding(result)
}

// AddAll appends the given entries in order and returns the number of entries that were still outstanding at the
// moment of their insertion.
func (q *Queue[S, V]) AddAll(entries ...Entry[S, V]) (outstandingCount int) {
	for _, entry := range entries {
		outstandingCount += lo.Cond(q.Add(entry.State, entry.Result), 1, 0)
	}

	return outstandingCount
}

// AddDeferred appends a placeholder for a batch of entries that is not known, yet. The placeholder occupies a single
// queue slot and counts as a single outstanding entry. Once the deferred batch terminates, the placeholder is replaced
// in place (keeping its FIFO position): on success by the entries of the batch (accounted like AddAll), on failure by
// a single rejected entry that carries the original state so the caller can still correlate the failure with its
// source.
func (q *Queue[S, V]) AddDeferred(state S, deferredBatch *future.Future[[]Entry[S, V]]) {
	placeholder := &slot[S, V]{state: state, deferred: deferredBatch}

	q.mutex.Lock()
	q.slots = append(q.slots, placeholder)
	q.mutex.Unlock()

	q.pendingCounter.Increase()
	deferredBatch.OnTerminal(func() {
		q.expandPlaceholder(placeholder)
	})
}

// Dequeue removes up to maxBatch terminal entries from the front of the queue and returns them in arrival order. It
// never skips a still outstanding entry to reach a later terminal one, so the returned batch is always a contiguous
// FIFO prefix (and possibly empty).
//
// If the queue population is within the capacity bound or the front of the queue already satisfies maxBatch, Dequeue
// returns immediately. Otherwise it waits up to maxWait for the entries at the front to terminate. Neither a timeout
// nor failed entries are errors: failures are returned as data and a timeout simply yields the prefix that is
// terminal by then.
func (q *Queue[S, V]) Dequeue() []Outcome[S, V] {
	if waitTargets := q.collectWaitTargets(); len(waitTargets) > 0 {
		q.awaitTermination(waitTargets)
	}

	return q.drainTerminalPrefix()
}

// PendingCount returns a point-in-time snapshot of the number of outstanding entries.
func (q *Queue[S, V]) PendingCount() int {
	return q.pendingCounter.Get()
}

// PendingCounter returns the underlying counter of outstanding entries (i.e. to wait for threshold crossings when
// implementing backpressure).
func (q *Queue[S, V]) PendingCounter() *syncutils.Counter {
	return q.pendingCounter
}

// Size returns the current queue population (outstanding plus terminal entries that were not drained, yet).
func (q *Queue[S, V]) Size() int {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	return len(q.slots)
}

// CapacityBound returns the maximum tolerated queue population before Dequeue starts waiting.
func (q *Queue[S, V]) CapacityBound() int {
	return q.capacityBound
}

// MaxBatch returns the maximum number of entries a single Dequeue call returns.
func (q *Queue[S, V]) MaxBatch() int {
	return q.maxBatch
}

// MaxWait returns the upper bound on the time a single Dequeue call may block.
func (q *Queue[S, V]) MaxWait() time.Duration {
	return q.maxWait
}

// trackOutstanding increases the outstanding count for a non-terminal result and arranges for the exactly-once
// decrease on its termination. It reports whether the result was outstanding at call time.
func (q *Queue[S, V]) trackOutstanding(result future.Terminable) (wasOutstanding bool) {
	if result.IsTerminal() {
		return false
	}

	q.pendingCounter.Increase()
	result.OnTerminal(func() {
		q.pendingCounter.Decrease()
	})

	return true
}

// expandPlaceholder replaces the given placeholder slot in place by the entries of its terminated deferred batch (or
// by a single rejected entry if the batch failed).
func (q *Queue[S, V]) expandPlaceholder(placeholder *slot[S, V]) {
	batch, err := placeholder.deferred.Result()

	var replacement []*slot[S, V]
	if err != nil {
		replacement = []*slot[S, V]{{state: placeholder.state, result: future.Rejected[V](err)}}
	} else {
		replacement = lo.Map(batch, func(entry Entry[S, V]) *slot[S, V] {
			return &slot[S, V]{state: entry.State, result: entry.Result}
		})
	}

	q.mutex.Lock()
	for i, currentSlot := range q.slots {
		if currentSlot == placeholder {
			q.slots = append(q.slots[:i:i], append(replacement, q.slots[i+1:]...)...)

			break
		}
	}
	q.mutex.Unlock()

	// account for the expanded entries before releasing the placeholder's contribution so the gauge never dips
	// below the true number of outstanding entries
	if err == nil {
		for _, entry := range batch {
			q.trackOutstanding(entry.Result)
		}
	}
	q.pendingCounter.Decrease()
}

// collectWaitTargets determines whether the calling Dequeue needs to wait at all and returns the results at the front
// of the queue whose termination it should wait for.
func (q *Queue[S, V]) collectWaitTargets() (waitTargets []future.Terminable) {
	q.mutex.RLock()
	defer q.mutex.RUnlock()

	if len(q.slots) <= q.capacityBound {
		return nil
	}

	for _, currentSlot := range q.slots[:lo.Min(len(q.slots), q.maxBatch)] {
		if waitTarget := currentSlot.waitTarget(); !waitTarget.IsTerminal() {
			waitTargets = append(waitTargets, waitTarget)
		}
	}

	return waitTargets
}

// awaitTermination blocks until all the given results have terminated or maxWait has elapsed, whichever comes first.
// The queue mutex is not held while waiting, so producers can keep appending entries.
func (q *Queue[S, V]) awaitTermination(waitTargets []future.Terminable) {
	allTerminated := make(chan struct{})
	future.WaitN(len(waitTargets), waitTargets...).OnTrigger(func() {
		close(allTerminated)
	})

	timer := time.NewTimer(q.maxWait)
	defer timer.Stop()

	select {
	case <-allTerminated:
	case <-timer.C:
	}
}

// drainTerminalPrefix removes the contiguous terminal prefix (up to maxBatch entries) from the front of the queue.
func (q *Queue[S, V]) drainTerminalPrefix() (outcomes []Outcome[S, V]) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for len(q.slots) > 0 && len(outcomes) < q.maxBatch {
		next := q.slots[0]
		if !next.isDrainable() {
			break
		}

		value, err := next.result.Result()
		outcomes = append(outcomes, Outcome[S, V]{State: next.state, Value: value, Err: err})

		q.slots[0] = nil
		q.slots = q.slots[1:]
	}

	return outcomes
}

// slot is a single position in the queue: either a plain entry or a placeholder for a deferred batch that still needs
// to be expanded in place.
type slot[S any, V any] struct {
	// state is the opaque caller-supplied state of the entry.
	state S

	// result is the pending result of a plain entry (nil for placeholder slots).
	result *future.Future[V]

	// deferred is the pending batch of a placeholder slot (nil for plain slots).
	deferred *future.Future[[]Entry[S, V]]
}

// waitTarget returns the result whose termination a Dequeue call needs to wait for.
func (s *slot[S, V]) waitTarget() future.Terminable {
	if s.deferred != nil {
		return s.deferred
	}

	return s.result
}

// isDrainable returns true if the slot holds a plain entry whose result is terminal. A placeholder is never drainable
// (its expansion replaces it under the queue mutex before it becomes visible to a drain).
func (s *slot[S, V]) isDrainable() bool {
	return s.deferred == nil && s.result.IsTerminal()
}
