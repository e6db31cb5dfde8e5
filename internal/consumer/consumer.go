// Package consumer runs the single goroutine that drains the ingestion
// ring and feeds the aggregation manager.
package consumer

import (
	"context"
	"runtime"
	"sync"
	"time"

	tickv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/tick/v1"
	"github.com/SJParthi/IndianFutureBillionaire/internal/engine"
	"github.com/SJParthi/IndianFutureBillionaire/internal/ring"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/errors"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

// idleSleep is how long the loop pauses once spinning on an empty ring
// stops being productive.
const idleSleep = 50 * time.Microsecond

const spinLimit = 128

// TickConsumer is the single consumer of the ingestion ring. It owns all
// bar state transitively through the manager, so it is the only goroutine
// allowed to execute sweeps.
type TickConsumer struct {
	ring    *ring.Ring
	manager *engine.Manager
	logger  logger.Interface

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTickConsumer wires the consumer to its ring and manager.
func NewTickConsumer(r *ring.Ring, m *engine.Manager, log logger.Interface) *TickConsumer {
	return &TickConsumer{
		ring:    r,
		manager: m,
		logger:  log,
	}
}

// Start launches the consumer loop.
func (c *TickConsumer) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.run()

	c.logger.Info("tick consumer started", logger.Field{
		Key:   "ringCapacity",
		Value: c.ring.Cap(),
	})
}

// Stop cancels the loop and waits for it to drain, bounded by ctx.
func (c *TickConsumer) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("tick consumer stopped")
		return nil
	case <-ctx.Done():
		c.logger.Warn("tick consumer stop timeout exceeded")
		return ctx.Err()
	}
}

func (c *TickConsumer) run() {
	defer c.wg.Done()

	spins := 0
	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("tick consumer shutting down")
			return
		default:
		}

		t, ok := c.ring.TryNext()
		if !ok {
			// Idle: a good moment for a requested idle-bar sweep, since
			// no tick is in flight.
			c.manager.RunPendingSweep(time.Now().UnixNano())

			spins++
			if spins < spinLimit {
				runtime.Gosched()
				continue
			}
			time.Sleep(idleSleep)
			continue
		}
		spins = 0

		c.processOne(t)
		c.manager.RunPendingSweep(time.Now().UnixNano())
	}
}

// processOne isolates per-tick panics so one bad tick cannot crash the
// loop or stall the ring.
func (c *TickConsumer) processOne(t tickv1.Tick) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(
				errors.NewErrorDetailsWithObject(
					"tick processing panicked, tick dropped",
					string(errors.GeneralInternalServerError),
					"",
					r,
				),
				logger.Field{Key: "instrumentId", Value: t.InstrumentID},
				logger.Field{Key: "price", Value: t.Price},
			)
		}
	}()

	c.manager.ProcessTick(t)
}
