package syncutils

import (
	"sync"
)

// Counter is a thread-safe counter that allows consumers to wait for threshold crossings and to subscribe to value
// changes.
type Counter struct {
	value              int
	valueMutex         sync.RWMutex
	valueIncreasedCond *sync.Cond
	valueDecreasedCond *sync.Cond
	subscribers        map[uint64]func(oldValue, newValue int)
	subscriberIDs      []uint64
	subscribersCounter uint64
	subscribersMutex   sync.RWMutex
}

// NewCounter creates a new Counter.
func NewCounter() (newCounter *Counter) {
	newCounter = &Counter{
		subscribers: make(map[uint64]func(oldValue, newValue int)),
	}
	newCounter.valueIncreasedCond = sync.NewCond(&newCounter.valueMutex)
	newCounter.valueDecreasedCond = sync.NewCond(&newCounter.valueMutex)

	return newCounter
}

// Get returns the current value of the counter.
func (c *Counter) Get() (value int) {
	c.valueMutex.RLock()
	defer c.valueMutex.RUnlock()

	return c.value
}

// Set sets the value of the counter and returns the old value.
func (c *Counter) Set(newValue int) (oldValue int) {
	if oldValue = c.set(newValue); oldValue < newValue {
		c.valueIncreasedCond.Broadcast()
	} else if oldValue > newValue {
		c.valueDecreasedCond.Broadcast()
	}

	return oldValue
}

// Update adds the given delta to the counter and returns the new value.
func (c *Counter) Update(delta int) (newValue int) {
	if newValue = c.update(delta); delta >= 1 {
		c.valueIncreasedCond.Broadcast()
	} else if delta <= -1 {
		c.valueDecreasedCond.Broadcast()
	}

	return newValue
}

// Increase increases the counter by 1 and returns the new value.
func (c *Counter) Increase() (newValue int) {
	return c.Update(1)
}

// Decrease decreases the counter by 1 and returns the new value.
func (c *Counter) Decrease() (newValue int) {
	return c.Update(-1)
}

// WaitIsZero blocks until the counter reaches zero.
func (c *Counter) WaitIsZero() {
	c.WaitIsBelow(1)
}

// WaitIsBelow blocks until the counter is below the given threshold.
func (c *Counter) WaitIsBelow(threshold int) {
	c.valueMutex.Lock()
	defer c.valueMutex.Unlock()

	for c.value >= threshold {
		c.valueDecreasedCond.Wait()
	}
}

// WaitIsAbove blocks until the counter is above the given threshold.
func (c *Counter) WaitIsAbove(threshold int) {
	c.valueMutex.Lock()
	defer c.valueMutex.Unlock()

	for c.value <= threshold {
		c.valueIncreasedCond.Wait()
	}
}

// Subscribe registers the given callbacks to be notified about changes of the counter value. The returned function can
// be used to unsubscribe again.
func (c *Counter) Subscribe(subscribers ...func(oldValue, newValue int)) (unsubscribe func()) {
	if len(subscribers) == 0 {
		return func() {}
	}

	subscriberID := c.subscribe(func(oldValue, newValue int) {
		for _, updateCallback := range subscribers {
			updateCallback(oldValue, newValue)
		}
	})

	return func() {
		c.unsubscribe(subscriberID)
	}
}

func (c *Counter) set(newValue int) (oldValue int) {
	c.valueMutex.Lock()
	defer c.valueMutex.Unlock()

	if oldValue = c.value; newValue != oldValue {
		c.value = newValue

		c.notifySubscribers(oldValue, newValue)
	}

	return oldValue
}

func (c *Counter) update(delta int) (newValue int) {
	c.valueMutex.Lock()
	defer c.valueMutex.Unlock()

	oldValue := c.value
	if newValue = oldValue + delta; newValue != oldValue {
		c.value = newValue

		c.notifySubscribers(oldValue, newValue)
	}

	return newValue
}

func (c *Counter) subscribe(callback func(oldValue, newValue int)) (subscriberID uint64) {
	c.subscribersMutex.Lock()
	defer c.subscribersMutex.Unlock()

	c.subscribersCounter++
	c.subscribers[c.subscribersCounter] = callback
	c.subscriberIDs = append(c.subscriberIDs, c.subscribersCounter)

	return c.subscribersCounter
}

func (c *Counter) unsubscribe(subscriberID uint64) {
	c.subscribersMutex.Lock()
	defer c.subscribersMutex.Unlock()

	delete(c.subscribers, subscriberID)
}

func (c *Counter) notifySubscribers(oldValue, newValue int) {
	c.subscribersMutex.RLock()
	defer c.subscribersMutex.RUnlock()

	for _, subscriberID := range c.subscriberIDs {
		if subscription, exists := c.subscribers[subscriberID]; exists {
			subscription(oldValue, newValue)
		}
	}
}
