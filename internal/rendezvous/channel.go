// Package rendezvous implements a single-slot handoff between exactly one
// producer and one consumer.
//
// The slot holds at most one value. Send blocks while the previous value is
// unconsumed; Receive blocks until a value is present. Both sides block on a
// sync.Cond, so neither polls. Receive clears the slot and drops the lock
// before returning, which lets the producer prepare and deposit the next
// value while the consumer is still processing the current one.
package rendezvous

import "sync"

// Channel is a depth-1 handoff. The zero value is not usable; call New.
type Channel[T any] struct {
	mu      sync.Mutex
	filled  *sync.Cond // consumer waits here for ready == true
	drained *sync.Cond // producer waits here for ready == false
	slot    T
	ready   bool
}

func New[T any]() *Channel[T] {
	c := &Channel[T]{}
	c.filled = sync.NewCond(&c.mu)
	c.drained = sync.NewCond(&c.mu)
	return c
}

// Send deposits v once the slot is empty and wakes the consumer. It returns
// as soon as v is in the slot; it does not wait for v to be received.
func (c *Channel[T]) Send(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.ready {
		c.drained.Wait()
	}
	c.slot = v
	c.ready = true
	c.filled.Signal()
}

// Receive takes the value out of the slot, blocking until one is present,
// and wakes the producer.
func (c *Channel[T]) Receive() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	for !c.ready {
		c.filled.Wait()
	}
	v := c.slot
	var zero T
	c.slot = zero
	c.ready = false
	c.drained.Signal()
	return v
}

// Pending reports whether a sent value has not been received yet.
func (c *Channel[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}
