// Package executor implements a streaming-data executor on top of asyncqueue: submitted computations are processed by
// a bounded goroutine pool while their results are harvested in bounded FIFO batches. Admission of new work is
// throttled based on the number of results that are still outstanding.
package executor

import (
	"runtime/debug"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"

	"github.com/iotaledger/stream.go/asyncqueue"
	"github.com/iotaledger/stream.go/future"
	"github.com/iotaledger/stream.go/lo"
	"github.com/iotaledger/stream.go/logger"
)

// ErrShutdown is the rejection reason of computations that are submitted after the executor was shut down.
var ErrShutdown = errors.New("executor was shut down")

// Executor runs submitted computations on a fixed-capacity goroutine pool and tracks their results in an
// asyncqueue.Queue for batched harvesting.
type Executor[S any, V any] struct {
	queue         *asyncqueue.Queue[S, V]
	pool          *ants.Pool
	log           *logger.Logger
	capacityBound int
	stopped       *atomic.Bool
	tasksWg       sync.WaitGroup
	shutdownOnce  sync.Once
}

// New creates a new Executor with the given configuration. If no logger is provided, the executor stays silent.
func New[S any, V any](cfg Config, optLog ...*logger.Logger) (*Executor[S, V], error) {
	pool, err := ants.NewPool(cfg.WorkerCount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create worker pool")
	}

	e := &Executor[S, V]{
		queue:         asyncqueue.New[S, V](cfg.CapacityBound, cfg.MaxWait, cfg.MaxBatch),
		pool:          pool,
		log:           logger.NewNopLogger(),
		capacityBound: cfg.CapacityBound,
		stopped:       atomic.NewBool(false),
	}
	if log := lo.First(optLog); log != nil {
		e.log = log
	}

	e.log.Debugf("started executor (workers: %d, capacityBound: %d)", cfg.WorkerCount, cfg.CapacityBound)

	return e, nil
}

// Process submits the given computation for the given state. It blocks until the number of outstanding results is
// below the capacity bound, then enqueues the pending result and schedules the computation. The returned future
// terminates once the computation has run (a panicking computation rejects it).
func (e *Executor[S, V]) Process(state S, computation func() (V, error)) *future.Future[V] {
	if e.stopped.Load() {
		return future.Rejected[V](ErrShutdown)
	}

	e.applyBackpressure()

	result := future.New[V]()
	e.queue.Add(state, result)
	e.submit(func() {
		if value, err := runGuarded(computation); err != nil {
			result.Reject(err)
		} else {
			result.Resolve(value)
		}
	})

	return result
}

// Task pairs a state with the computation that produces its result.
type Task[S any, V any] struct {
	State       S
	Computation func() (V, error)
}

// ProcessBatch submits the given tasks in order. The pending results are enqueued as a single batch before the
// computations are scheduled (one pool task per computation), so the harvested outcomes preserve the submission
// order of the batch. The returned futures correspond to the tasks by index.
func (e *Executor[S, V]) ProcessBatch(tasks ...Task[S, V]) []*future.Future[V] {
	results := make([]*future.Future[V], len(tasks))

	if e.stopped.Load() {
		for i := range results {
			results[i] = future.Rejected[V](ErrShutdown)
		}

		return results
	}

	e.applyBackpressure()

	entries := make([]asyncqueue.Entry[S, V], len(tasks))
	for i, task := range tasks {
		results[i] = future.New[V]()
		entries[i] = asyncqueue.Entry[S, V]{State: task.State, Result: results[i]}
	}
	e.queue.AddAll(entries...)

	for i, task := range tasks {
		result, computation := results[i], task.Computation
		e.submit(func() {
			if value, err := runGuarded(computation); err != nil {
				result.Reject(err)
			} else {
				result.Resolve(value)
			}
		})
	}

	return results
}

// ProcessDeferred submits a computation that fans out into zero or more derived entries. The expansion occupies a
// single queue slot until it terminates (see asyncqueue.AddDeferred).
func (e *Executor[S, V]) ProcessDeferred(state S, expansion func() ([]asyncqueue.Entry[S, V], error)) *future.Future[[]asyncqueue.Entry[S, V]] {
	if e.stopped.Load() {
		return future.Rejected[[]asyncqueue.Entry[S, V]](ErrShutdown)
	}

	e.applyBackpressure()

	deferredBatch := future.New[[]asyncqueue.Entry[S, V]]()
	e.queue.AddDeferred(state, deferredBatch)
	e.submit(func() {
		if batch, err := runGuarded(expansion); err != nil {
			deferredBatch.Reject(err)
		} else {
			deferredBatch.Resolve(batch)
		}
	})

	return deferredBatch
}

// Harvest drains the terminal entries from the front of the result queue (see asyncqueue.Dequeue for the exact
// waiting and batching behavior).
func (e *Executor[S, V]) Harvest() []asyncqueue.Outcome[S, V] {
	outcomes := e.queue.Dequeue()
	if len(outcomes) > 0 {
		e.log.Debugf("harvested %d outcomes (%d still pending)", len(outcomes), e.queue.PendingCount())
	}

	return outcomes
}

// PendingCount returns the number of submitted computations whose results are still outstanding.
func (e *Executor[S, V]) PendingCount() int {
	return e.queue.PendingCount()
}

// Queue returns the underlying result queue.
func (e *Executor[S, V]) Queue() *asyncqueue.Queue[S, V] {
	return e.queue
}

// ShutdownGracefully stops accepting new computations, waits for the scheduled ones to finish and releases the
// worker pool. Already enqueued results remain harvestable.
func (e *Executor[S, V]) ShutdownGracefully() {
	e.shutdownOnce.Do(func() {
		e.stopped.Store(true)
		e.tasksWg.Wait()
		e.pool.Release()

		e.log.Debug("executor shut down")
	})
}

// applyBackpressure blocks until the number of outstanding results is below the capacity bound.
func (e *Executor[S, V]) applyBackpressure() {
	if e.capacityBound > 0 {
		e.queue.PendingCounter().WaitIsBelow(e.capacityBound)
	}
}

// submit schedules the given task on the worker pool, falling back to a dedicated goroutine if the pool rejects it
// during shutdown.
func (e *Executor[S, V]) submit(task func()) {
	e.tasksWg.Add(1)
	wrappedTask := func() {
		defer e.tasksWg.Done()

		task()
	}

	if antsErr := e.pool.Submit(wrappedTask); antsErr != nil {
		go wrappedTask()
	}
}

// runGuarded executes the given computation and converts panics into rejection errors.
func runGuarded[R any](computation func() (R, error)) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("recovered from panic in executor: %v\n%s", r, debug.Stack())
		}
	}()

	return computation()
}
