package syncutils_test

import (
	"sync"
	"testing"

	"github.com/iotaledger/stream.go/syncutils"
)

func TestCounter_IncreaseDecrease(t *testing.T) {
	counter := syncutils.NewCounter()
	var wg sync.WaitGroup

	for i := 0; i < 100000; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			counter.Increase()
		}()
		go func() {
			defer wg.Done()
			counter.Decrease()
		}()
	}

	wg.Wait()

	if val := counter.Get(); val != 0 {
		t.Errorf("Expected: 0, Got: %d", val)
	}
}

func TestCounter_WaitIsAbove(t *testing.T) {
	counter := syncutils.NewCounter()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		counter.WaitIsAbove(500)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			counter.Increase()
		}
	}()

	wg.Wait()

	if val := counter.Get(); val != 1000 {
		t.Errorf("Expected: 1000, Got: %d", val)
	}
}

func TestCounter_WaitIsZero(t *testing.T) {
	counter := syncutils.NewCounter()
	counter.Set(1000)

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counter.WaitIsZero()
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for counter.Decrease() > 0 {
		}
	}()

	wg.Wait()
}

func TestCounter_Subscribe(t *testing.T) {
	counter := syncutils.NewCounter()

	updates := 0
	unsubscribe := counter.Subscribe(func(oldValue, newValue int) {
		updates++
	})

	counter.Increase()
	counter.Increase()
	counter.Decrease()

	unsubscribe()
	counter.Increase()

	if updates != 3 {
		t.Errorf("Expected 3 updates, got: %d", updates)
	}
}
