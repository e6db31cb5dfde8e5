// Package ring provides the bounded single-producer single-consumer
// ingestion channel carrying ticks from feed adapters to the aggregation
// loop. It uses atomic head/tail sequences and cache-line padding so the
// producer and consumer never contend on a lock.
package ring

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	tickv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/tick/v1"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/errors"
)

// cacheLine is the typical x86-64 cache line size used for padding.
const cacheLine = 64

// spinLimit is how many empty/full polls happen before the waiter yields
// to the scheduler and then starts sleeping.
const spinLimit = 128

// idleSleep bounds the latency of waking a blocked producer or consumer.
const idleSleep = 50 * time.Microsecond

// Ring is a bounded SPSC buffer of ticks. Capacity is fixed at
// construction and rounded up to a power of two for cheap masking.
//
// The slot handshake: the producer writes the slot first and publishes it
// by storing head afterwards; the consumer loads head before reading the
// slot. The atomic store/load pair gives the happens-before edge, so a
// slot is never read before it is fully written.
type Ring struct {
	buf  []tickv1.Tick
	mask uint64

	// Separate cache lines prevent false sharing between the producer
	// and consumer counters.
	_pad0 [cacheLine]byte
	head  atomic.Uint64 // next sequence to write, producer-owned
	_pad1 [cacheLine]byte
	tail  atomic.Uint64 // next sequence to read, consumer-owned
	_pad2 [cacheLine]byte
}

// New creates a ring buffer. capacity is rounded up to the next power of
// two, with a minimum of 2.
func New(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, errors.NewErrorDetails(
			"ring capacity must be positive",
			string(errors.ErrInvalidRingCapacity),
			"capacity",
		)
	}

	c := nextPow2(capacity)
	if c < 2 {
		c = 2
	}
	return &Ring{
		buf:  make([]tickv1.Tick, c),
		mask: uint64(c - 1),
	}, nil
}

// Publish appends a tick, blocking the producer while the ring is full.
// Backpressure is the intended control signal here: the channel never
// rejects, so throughput above capacity caps at consumer drain rate.
func (r *Ring) Publish(t tickv1.Tick) {
	spins := 0
	for !r.TryPublish(t) {
		spins++
		if spins < spinLimit {
			runtime.Gosched()
			continue
		}
		time.Sleep(idleSleep)
	}
}

// TryPublish appends a tick without blocking. Returns false if the ring
// is full and the tick was not written.
func (r *Ring) TryPublish(t tickv1.Tick) bool {
	head := r.head.Load()
	tail := r.tail.Load()

	if head-tail >= uint64(len(r.buf)) {
		return false
	}

	r.buf[head&r.mask] = t
	r.head.Store(head + 1)
	return true
}

// TryNext retrieves the next tick without blocking. Returns false if the
// ring is empty.
func (r *Ring) TryNext() (tickv1.Tick, bool) {
	tail := r.tail.Load()
	head := r.head.Load()

	if tail >= head {
		return tickv1.Tick{}, false
	}

	t := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return t, true
}

// Next retrieves the next tick, blocking while the ring is empty. It
// returns the context error once ctx is cancelled.
func (r *Ring) Next(ctx context.Context) (tickv1.Tick, error) {
	spins := 0
	for {
		if t, ok := r.TryNext(); ok {
			return t, nil
		}

		select {
		case <-ctx.Done():
			return tickv1.Tick{}, ctx.Err()
		default:
		}

		spins++
		if spins < spinLimit {
			runtime.Gosched()
			continue
		}
		time.Sleep(idleSleep)
	}
}

// Len returns the current number of buffered ticks.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Cap returns the fixed ring capacity.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// RemainingCapacity returns how many more ticks fit before the producer
// would block.
func (r *Ring) RemainingCapacity() int {
	return r.Cap() - r.Len()
}

// Usage returns occupied capacity as a fraction in [0, 1]. Both the
// circuit breaker gate and telemetry read it.
func (r *Ring) Usage() float64 {
	return float64(r.Len()) / float64(r.Cap())
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
