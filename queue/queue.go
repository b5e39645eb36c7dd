// Package queue implements the bounded blocking FIFO queue underneath every
// cogmesh channel. A Bounded[T] suspends producers while full and consumers
// while empty, preserves FIFO order, and supports an idempotent Close that
// wakes every waiter: parked producers fail with ErrClosed while consumers
// drain the remaining buffered values before observing ErrEnd.
package queue

import (
	"context"
	"errors"
	"sync"
)

// Sentinel errors reported by Bounded operations.
var (
	// ErrClosed is returned by Put and TryPut when the queue has been closed,
	// whether the call arrived after Close or was already waiting for space.
	ErrClosed = errors.New("queue: closed")

	// ErrEnd is returned by Take once a closed queue has been fully drained.
	// It marks normal termination of the value stream rather than a fault,
	// in the same spirit as io.EOF.
	ErrEnd = errors.New("queue: end of stream")

	// ErrFull is returned by TryPut when the queue is at capacity.
	ErrFull = errors.New("queue: full")
)

// Bounded is a fixed-capacity FIFO queue with blocking Put and Take.
//
// Capacity zero means rendezvous: Put parks until a Take is ready to receive
// the value directly. A positive capacity bounds the number of buffered
// values and is the mechanism behind backpressure: a producer outrunning its
// consumer is suspended, never dropped.
//
// All methods are safe for concurrent use by any number of goroutines.
type Bounded[T any] struct {
	capacity int
	data     chan T
	done     chan struct{}

	mu      sync.Mutex
	space   chan struct{}
	waiters int
	closed  bool
}

// NewBounded creates a queue holding at most capacity values. A capacity of
// zero creates a rendezvous queue. Negative capacities panic.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 0 {
		panic("queue: negative capacity")
	}
	return &Bounded[T]{
		capacity: capacity,
		data:     make(chan T, capacity),
		done:     make(chan struct{}),
		space:    make(chan struct{}),
	}
}

// Put enqueues v, suspending the caller while the queue is full and open.
// It returns ErrClosed if the queue is closed before or while waiting, or
// ctx.Err() if the context ends first.
func (b *Bounded[T]) Put(ctx context.Context, v T) error {
	if b.capacity == 0 {
		return b.putRendezvous(ctx, v)
	}
	b.mu.Lock()
	for {
		if b.closed {
			b.mu.Unlock()
			return ErrClosed
		}
		select {
		case b.data <- v:
			b.mu.Unlock()
			return nil
		default:
		}
		// Full. Park on the current space generation; Take rotates it when a
		// slot frees, Close wakes everyone through done. Taking the channel
		// reference under the lock is what makes the wakeup race-free.
		b.waiters++
		wait := b.space
		b.mu.Unlock()

		select {
		case <-wait:
		case <-b.done:
		case <-ctx.Done():
			b.mu.Lock()
			b.waiters--
			b.mu.Unlock()
			return ctx.Err()
		}
		b.mu.Lock()
		b.waiters--
	}
}

// putRendezvous hands v directly to a waiting taker. The unbuffered channel
// already gives the exact semantics: the send commits only by pairing with an
// active receive, so a value can never be stranded by a concurrent Close.
func (b *Bounded[T]) putRendezvous(ctx context.Context, v T) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	select {
	case b.data <- v:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPut enqueues v without blocking. It returns ErrFull when no space is
// available (for capacity zero: when no taker is currently waiting) and
// ErrClosed after Close.
func (b *Bounded[T]) TryPut(v T) error {
	if b.capacity == 0 {
		select {
		case <-b.done:
			return ErrClosed
		default:
		}
		select {
		case b.data <- v:
			return nil
		default:
			return ErrFull
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.data <- v:
		return nil
	default:
		return ErrFull
	}
}

// Take dequeues the oldest value, suspending the caller while the queue is
// empty and open. After Close it keeps returning buffered values until the
// queue is drained and only then reports ErrEnd. A context end while waiting
// returns ctx.Err().
func (b *Bounded[T]) Take(ctx context.Context) (T, error) {
	var zero T
	// Buffered values win over closure so consumers always drain first.
	select {
	case v := <-b.data:
		b.signalSpace()
		return v, nil
	default:
	}
	select {
	case v := <-b.data:
		b.signalSpace()
		return v, nil
	case <-b.done:
		// A value enqueued just before Close is still owed to takers. Every
		// successful pre-close Put happened under the same lock as Close, so
		// it is visible here.
		select {
		case v := <-b.data:
			return v, nil
		default:
			return zero, ErrEnd
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// signalSpace wakes parked producers after a slot frees. The generation
// channel is replaced wholesale so every current waiter observes the close.
func (b *Bounded[T]) signalSpace() {
	if b.capacity == 0 {
		return
	}
	b.mu.Lock()
	if b.waiters > 0 {
		close(b.space)
		b.space = make(chan struct{})
	}
	b.mu.Unlock()
}

// Close marks the queue closed and wakes all waiters. It is idempotent.
// Buffered values remain takeable; new and parked Puts fail with ErrClosed.
func (b *Bounded[T]) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	b.mu.Unlock()
}

// Len reports the number of currently buffered values.
func (b *Bounded[T]) Len() int { return len(b.data) }

// Cap reports the configured capacity.
func (b *Bounded[T]) Cap() int { return b.capacity }

// Closed reports whether Close has been called.
func (b *Bounded[T]) Closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}
