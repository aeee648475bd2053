package future

import (
	"context"

	"github.com/iotaledger/stream.go/promise"
	"github.com/iotaledger/stream.go/syncutils"
)

// Future is the result of an asynchronous computation that either resolves with a value or gets rejected with an
// error. It transitions into its terminal state at most once and never leaves it again.
type Future[V any] struct {
	// terminated is triggered once the future reaches its terminal state.
	terminated *promise.Event

	// value contains the result of the computation (if it was resolved).
	value V

	// err contains the reason for the rejection (if it was rejected).
	err error

	// mutex is used to synchronize the terminal state transition.
	mutex syncutils.RWMutex

	// settled is true once the terminal state transition has started.
	settled bool
}

// New creates a new Future that is still pending.
func New[V any]() *Future[V] {
	return &Future[V]{
		terminated: promise.NewEvent(),
	}
}

// Resolved creates a new Future that was already resolved with the given value.
func Resolved[V any](value V) *Future[V] {
	f := New[V]()
	f.Resolve(value)

	return f
}

// Rejected creates a new Future that was already rejected with the given error.
func Rejected[V any](err error) *Future[V] {
	f := New[V]()
	f.Reject(err)

	return f
}

// Resolve resolves the future with the given value. It returns false if the future was already terminal.
func (f *Future[V]) Resolve(value V) (wasResolved bool) {
	return f.settle(value, nil)
}

// Reject rejects the future with the given error. It returns false if the future was already terminal.
func (f *Future[V]) Reject(err error) (wasRejected bool) {
	var emptyValue V

	return f.settle(emptyValue, err)
}

// IsTerminal returns true if the future was either resolved or rejected.
func (f *Future[V]) IsTerminal() bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	return f.settled
}

// OnTerminal registers a callback that is called once the future reaches its terminal state. If the future is already
// terminal, the callback is called immediately. The registration never blocks and the callback is called at most once.
// The returned function can be used to unsubscribe the callback.
func (f *Future[V]) OnTerminal(callback func()) (unsubscribe func()) {
	return f.terminated.OnTrigger(callback)
}

// Result returns the value and the error of the future. It is only meaningful once the future is terminal.
func (f *Future[V]) Result() (value V, err error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	return f.value, f.err
}

// WaitCtx blocks until the future is terminal or the given context is done (in which case the context's error is
// returned).
func (f *Future[V]) WaitCtx(ctx context.Context) error {
	terminated := make(chan struct{})
	unsubscribe := f.OnTerminal(func() {
		close(terminated)
	})
	defer unsubscribe()

	select {
	case <-terminated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settle performs the terminal state transition (the first caller wins, everybody else is ignored).
func (f *Future[V]) settle(value V, err error) (wasSettled bool) {
	f.mutex.Lock()
	if f.settled {
		f.mutex.Unlock()

		return false
	}
	f.settled = true
	f.value = value
	f.err = err
	f.mutex.Unlock()

	f.terminated.Trigger()

	return true
}
