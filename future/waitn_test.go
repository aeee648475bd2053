package future_test

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stream.go/future"
)

func terminables(futures []*future.Future[int]) (results []future.Terminable) {
	for _, f := range futures {
		results = append(results, f)
	}

	return results
}

func TestWaitNFiresAtThreshold(t *testing.T) {
	futures := make([]*future.Future[int], 5)
	for i := range futures {
		futures[i] = future.New[int]()
	}

	triggerCount := 0
	thresholdReached := future.WaitN(3, terminables(futures)...)
	thresholdReached.OnTrigger(func() {
		triggerCount++
	})

	futures[4].Resolve(1)
	futures[0].Reject(errors.New("failed results count as well"))
	require.False(t, thresholdReached.WasTriggered(), "threshold should not be reached after 2 terminal results")

	futures[2].Resolve(2)
	require.True(t, thresholdReached.WasTriggered(), "threshold should be reached after 3 terminal results")
	require.Equal(t, 1, triggerCount)

	// additional completions must not cause a second firing
	futures[1].Resolve(3)
	futures[3].Resolve(4)
	require.Equal(t, 1, triggerCount)
}

func TestWaitNZeroThreshold(t *testing.T) {
	thresholdReached := future.WaitN(0, future.New[int]())
	require.True(t, thresholdReached.WasTriggered(), "a threshold of 0 should fire immediately")
}

func TestWaitNThresholdAboveInputCount(t *testing.T) {
	futures := []*future.Future[int]{future.New[int](), future.New[int]()}

	thresholdReached := future.WaitN(3, terminables(futures)...)

	futures[0].Resolve(1)
	futures[1].Resolve(2)
	require.False(t, thresholdReached.WasTriggered(), "an unreachable threshold should never fire")
}

func TestWaitNAlreadyTerminalInputs(t *testing.T) {
	thresholdReached := future.WaitN(2, future.Resolved(1), future.Rejected[int](errors.New("boom")), future.New[int]())
	require.True(t, thresholdReached.WasTriggered(), "already terminal inputs should count towards the threshold")
}

func TestWaitNConcurrentCompletions(t *testing.T) {
	futures := make([]*future.Future[int], 100)
	for i := range futures {
		futures[i] = future.New[int]()
	}

	thresholdReached := future.WaitAll(terminables(futures)...)

	triggered := make(chan struct{})
	thresholdReached.OnTrigger(func() {
		close(triggered)
	})

	var wg sync.WaitGroup
	for i, f := range futures {
		wg.Add(1)
		go func(i int, f *future.Future[int]) {
			defer wg.Done()

			f.Resolve(i)
		}(i, f)
	}
	wg.Wait()

	<-triggered
	require.True(t, thresholdReached.WasTriggered())
}
