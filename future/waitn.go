package future

import (
	"go.uber.org/atomic"

	"github.com/iotaledger/stream.go/promise"
)

// Terminable is the minimal interface of an asynchronous result that allows consumers to query its terminal state and
// to register a one-shot completion watcher. It is implemented by Future independent of its value type.
type Terminable interface {
	// IsTerminal returns true if the result was either resolved or rejected.
	IsTerminal() bool

	// OnTerminal registers a callback that is called once the result reaches its terminal state.
	OnTerminal(callback func()) (unsubscribe func())
}

// WaitN returns an Event that is triggered exactly once as soon as at least n of the given results have reached their
// terminal state (failed results count the same as successful ones). It fires the moment the n-th result terminates,
// independent of which subset of the results that is.
//
// If n is 0 the returned Event is triggered immediately, if n is larger than the number of given results it is never
// triggered. Registering the watchers never blocks the caller.
func WaitN(n int, results ...Terminable) *promise.Event {
	thresholdReached := promise.NewEvent()
	if n <= 0 {
		thresholdReached.Trigger()

		return thresholdReached
	}

	terminatedCount := atomic.NewInt64(0)
	for _, result := range results {
		result.OnTerminal(func() {
			if terminatedCount.Inc() == int64(n) {
				thresholdReached.Trigger()
			}
		})
	}

	return thresholdReached
}

// WaitAll returns an Event that is triggered once all the given results have reached their terminal state.
func WaitAll(results ...Terminable) *promise.Event {
	return WaitN(len(results), results...)
}
