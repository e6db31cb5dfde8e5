package sink

import (
	"context"
	"encoding/json"
	"sync"

	barv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/errors"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/redis"
)

// publishBuffer bounds in-flight bars awaiting publication. Bars beyond
// the bound are dropped rather than blocking the consumer goroutine.
const publishBuffer = 1024

// RedisPublisher publishes finalized bars as JSON to a Redis pub/sub
// channel for external dashboards and strategy processes. OnBarFinalized
// only enqueues; a worker goroutine does the network I/O, keeping the
// consumer hot path free of blocking waits.
type RedisPublisher struct {
	client  redis.Client
	channel string
	logger  logger.Interface

	bars chan barv1.Bar

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	droppedMu sync.Mutex
	dropped   uint64
}

// NewRedisPublisher wires the publisher to a connected Redis client.
func NewRedisPublisher(client redis.Client, channel string, log logger.Interface) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		logger:  log,
		bars:    make(chan barv1.Bar, publishBuffer),
	}
}

// Start launches the publish worker.
func (p *RedisPublisher) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("redis bar publisher started", logger.Field{
		Key:   "channel",
		Value: p.channel,
	})
}

// Stop cancels the worker and waits for it, bounded by ctx.
func (p *RedisPublisher) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("redis bar publisher stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("redis bar publisher stop timeout exceeded")
		return ctx.Err()
	}
}

// OnBarFinalized implements barv1.Sink. Never blocks: when the publish
// buffer is full the bar is dropped and counted.
func (p *RedisPublisher) OnBarFinalized(b barv1.Bar) {
	select {
	case p.bars <- b:
	default:
		p.droppedMu.Lock()
		p.dropped++
		p.droppedMu.Unlock()
	}
}

// Dropped returns how many bars were discarded because the publish buffer
// was full.
func (p *RedisPublisher) Dropped() uint64 {
	p.droppedMu.Lock()
	defer p.droppedMu.Unlock()
	return p.dropped
}

func (p *RedisPublisher) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Info("redis bar publisher shutting down")
			return
		case b := <-p.bars:
			p.publish(b)
		}
	}
}

func (p *RedisPublisher) publish(b barv1.Bar) {
	payload, err := json.Marshal(b)
	if err != nil {
		p.logger.Error(errors.TracerFromError(err), logger.Field{
			Key:   "action",
			Value: "marshal_bar",
		})
		return
	}

	if _, err := p.client.Publish(p.ctx, p.channel, payload); err != nil {
		p.logger.Error(errors.TracerFromError(err),
			logger.Field{Key: "action", Value: "publish_bar"},
			logger.Field{Key: "instrumentId", Value: b.InstrumentID},
			logger.Field{Key: "timeframe", Value: b.Timeframe},
		)
	}
}
