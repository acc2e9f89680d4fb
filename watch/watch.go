// Package watch provides the last-value distribution channel between one
// feed pipeline and its consumers. Each publish replaces the previous value
// wholesale; readers always observe the most recent value and never block
// the writer.
package watch

import (
	"context"
	"sync"

	"hyperflow/logger"
)

// Stats counts channel activity since creation.
type Stats struct {
	Published uint64
	Failed    uint64
	Receivers int
}

// Channel is a single-writer, multi-reader last-value channel. Publish is
// only valid from the owning pipeline goroutine; any number of receivers may
// read concurrently.
type Channel[T any] struct {
	name string
	log  *logger.Log

	mu        sync.RWMutex
	value     T
	seq       uint64
	failed    uint64
	receivers map[uint64]chan struct{}
	nextID    uint64
}

// New creates a channel holding the given initial value.
func New[T any](name string, initial T) *Channel[T] {
	return &Channel[T]{
		name:      name,
		log:       logger.GetLogger(),
		value:     initial,
		receivers: make(map[uint64]chan struct{}),
	}
}

// Publish replaces the current value and wakes all receivers. It returns
// false when no receiver is subscribed; pipelines treat that as fatal for
// the current iteration, matching a broadcast with every reader gone.
func (c *Channel[T]) Publish(v T) bool {
	c.mu.Lock()
	if len(c.receivers) == 0 {
		c.failed++
		c.mu.Unlock()
		return false
	}
	c.value = v
	c.seq++
	for _, notify := range c.receivers {
		select {
		case notify <- struct{}{}:
		default:
			// Receiver already has a pending wakeup; it will read the
			// latest value anyway.
		}
	}
	c.mu.Unlock()

	logger.RecordChannelMessage(c.name, 1)
	return true
}

// Stats returns a snapshot of the channel counters.
func (c *Channel[T]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Published: c.seq, Failed: c.failed, Receivers: len(c.receivers)}
}

// Subscribe registers a new receiver observing the current value and every
// later publish. Close the receiver when done.
func (c *Channel[T]) Subscribe() *Receiver[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	notify := make(chan struct{}, 1)
	c.receivers[id] = notify

	return &Receiver[T]{ch: c, id: id, notify: notify}
}

// Receiver reads the latest value of a Channel.
type Receiver[T any] struct {
	ch     *Channel[T]
	id     uint64
	notify chan struct{}

	closeOnce sync.Once
}

// Latest returns the most recently published value and its sequence number.
// Sequence 0 means nothing has been published yet and the initial value is
// returned.
func (r *Receiver[T]) Latest() (T, uint64) {
	r.ch.mu.RLock()
	defer r.ch.mu.RUnlock()
	return r.ch.value, r.ch.seq
}

// Changed blocks until a publish occurs after the last wakeup, or the
// context is done. Intermediate publishes may be coalesced; only the latest
// value is observable.
func (r *Receiver[T]) Changed(ctx context.Context) error {
	select {
	case <-r.notify:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unregisters the receiver. Publishing to a channel whose last
// receiver closed fails until a new receiver subscribes.
func (r *Receiver[T]) Close() {
	r.closeOnce.Do(func() {
		r.ch.mu.Lock()
		delete(r.ch.receivers, r.id)
		r.ch.mu.Unlock()
	})
}
