package executor_test

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/iotaledger/stream.go/asyncqueue"
	"github.com/iotaledger/stream.go/executor"
	"github.com/iotaledger/stream.go/future"
)

func newTestExecutor(t *testing.T, cfg executor.Config) *executor.Executor[string, int] {
	t.Helper()

	e, err := executor.New[string, int](cfg)
	require.NoError(t, err)
	t.Cleanup(e.ShutdownGracefully)

	return e
}

func harvestAll(t *testing.T, e *executor.Executor[string, int], expectedCount int) (outcomes []asyncqueue.Outcome[string, int]) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for len(outcomes) < expectedCount {
		require.True(t, time.Now().Before(deadline), "harvested %d of %d outcomes before timing out", len(outcomes), expectedCount)

		outcomes = append(outcomes, e.Harvest()...)
	}

	return outcomes
}

func TestExecutorProcess(t *testing.T) {
	e := newTestExecutor(t, executor.DefaultConfig())

	failure := errors.New("record rejected")
	e.Process("a", func() (int, error) { return 1, nil })
	e.Process("b", func() (int, error) { return 0, failure })
	e.Process("c", func() (int, error) { return 3, nil })

	outcomes := harvestAll(t, e, 3)

	require.Equal(t, "a", outcomes[0].State)
	require.Equal(t, 1, outcomes[0].Value)
	require.NoError(t, outcomes[0].Err)

	require.Equal(t, "b", outcomes[1].State)
	require.ErrorIs(t, outcomes[1].Err, failure)

	require.Equal(t, "c", outcomes[2].State)
	require.Equal(t, 3, outcomes[2].Value)
	require.Equal(t, 0, e.PendingCount())
}

func TestExecutorProcessBatch(t *testing.T) {
	e := newTestExecutor(t, executor.DefaultConfig())

	failure := errors.New("record rejected")
	results := e.ProcessBatch(
		executor.Task[string, int]{State: "a", Computation: func() (int, error) { return 1, nil }},
		executor.Task[string, int]{State: "b", Computation: func() (int, error) { return 0, failure }},
		executor.Task[string, int]{State: "c", Computation: func() (int, error) { return 3, nil }},
	)
	require.Len(t, results, 3)

	outcomes := harvestAll(t, e, 3)

	require.Equal(t, "a", outcomes[0].State)
	require.Equal(t, 1, outcomes[0].Value)
	require.NoError(t, outcomes[0].Err)

	require.Equal(t, "b", outcomes[1].State)
	require.ErrorIs(t, outcomes[1].Err, failure)

	require.Equal(t, "c", outcomes[2].State)
	require.Equal(t, 3, outcomes[2].Value)

	value, err := results[2].Result()
	require.NoError(t, err)
	require.Equal(t, 3, value)
}

func TestExecutorProcessBatchAfterShutdown(t *testing.T) {
	e, err := executor.New[string, int](executor.DefaultConfig())
	require.NoError(t, err)

	e.ShutdownGracefully()

	results := e.ProcessBatch(
		executor.Task[string, int]{State: "late", Computation: func() (int, error) { return 1, nil }},
	)
	require.Len(t, results, 1)
	require.True(t, results[0].IsTerminal())

	_, err = results[0].Result()
	require.ErrorIs(t, err, executor.ErrShutdown)
	require.Equal(t, 0, e.Queue().Size(), "nothing should be enqueued after shutdown")
}

func TestExecutorPanicRecovery(t *testing.T) {
	e := newTestExecutor(t, executor.DefaultConfig())

	e.Process("panicking", func() (int, error) { panic("boom") })

	outcomes := harvestAll(t, e, 1)
	require.Equal(t, "panicking", outcomes[0].State)
	require.Error(t, outcomes[0].Err)
}

func TestExecutorProcessDeferred(t *testing.T) {
	e := newTestExecutor(t, executor.DefaultConfig())

	e.ProcessDeferred("fanout", func() ([]asyncqueue.Entry[string, int], error) {
		return []asyncqueue.Entry[string, int]{
			{State: "derived-1", Result: future.Resolved(1)},
			{State: "derived-2", Result: future.Resolved(2)},
		}, nil
	})

	outcomes := harvestAll(t, e, 2)
	require.Equal(t, "derived-1", outcomes[0].State)
	require.Equal(t, "derived-2", outcomes[1].State)
}

func TestExecutorProcessDeferredFailure(t *testing.T) {
	e := newTestExecutor(t, executor.DefaultConfig())

	expansionErr := errors.New("expansion failed")
	e.ProcessDeferred("fanout", func() ([]asyncqueue.Entry[string, int], error) {
		return nil, expansionErr
	})

	outcomes := harvestAll(t, e, 1)
	require.Equal(t, "fanout", outcomes[0].State)
	require.ErrorIs(t, outcomes[0].Err, expansionErr)
}

func TestExecutorShutdown(t *testing.T) {
	e, err := executor.New[string, int](executor.DefaultConfig())
	require.NoError(t, err)

	e.ShutdownGracefully()

	result := e.Process("late", func() (int, error) { return 1, nil })
	require.True(t, result.IsTerminal())

	_, err = result.Result()
	require.ErrorIs(t, err, executor.ErrShutdown)
}

func TestExecutorBackpressure(t *testing.T) {
	cfg := executor.DefaultConfig()
	cfg.CapacityBound = 2
	cfg.WorkerCount = 4

	e := newTestExecutor(t, cfg)

	release := make(chan struct{})
	blockingComputation := func() (int, error) {
		<-release

		return 1, nil
	}

	e.Process("a", blockingComputation)
	e.Process("b", blockingComputation)

	admitted := atomic.NewBool(false)
	go func() {
		e.Process("c", blockingComputation)
		admitted.Store(true)
	}()

	time.Sleep(50 * time.Millisecond)
	require.False(t, admitted.Load(), "submission above the capacity bound should be throttled")

	close(release)
	require.Eventually(t, admitted.Load, time.Second, 10*time.Millisecond)

	harvestAll(t, e, 3)
}
