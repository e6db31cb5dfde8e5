// Package monitor runs the overload sidecar: an independent periodic loop
// that trips and untrips the circuit breaker from feed-rate and ring-usage
// samples, decoupled from the tick consumer.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SJParthi/IndianFutureBillionaire/internal/breaker"
	"github.com/SJParthi/IndianFutureBillionaire/internal/engine"
	"github.com/SJParthi/IndianFutureBillionaire/internal/telemetry"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/config"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

// OverloadMonitor samples telemetry every fixed interval and drives the
// breaker asynchronously. It only reads atomics and the feed-rate counter,
// so it never blocks the consumer goroutine.
type OverloadMonitor struct {
	cfg     config.MonitorConfig
	breaker *breaker.Breaker
	tracker *telemetry.Tracker
	usage   telemetry.UsageSource
	manager *engine.Manager
	logger  logger.Interface

	// lowSamples counts consecutive low-usage cycles while meltdown is
	// active; only the monitor goroutine touches it.
	lowSamples int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the monitor. manager may be nil when the idle sweep is
// disabled.
func New(
	cfg config.MonitorConfig,
	brk *breaker.Breaker,
	tracker *telemetry.Tracker,
	usage telemetry.UsageSource,
	manager *engine.Manager,
	log logger.Interface,
) *OverloadMonitor {
	return &OverloadMonitor{
		cfg:     cfg,
		breaker: brk,
		tracker: tracker,
		usage:   usage,
		manager: manager,
		logger:  log,
	}
}

// Start launches the periodic loop.
func (m *OverloadMonitor) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("overload monitor started", logger.Field{
		Key:   "interval",
		Value: m.cfg.Interval.String(),
	})
}

// Stop cancels the loop and waits for the current cycle to finish.
func (m *OverloadMonitor) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("overload monitor stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("overload monitor stop timeout exceeded")
		return ctx.Err()
	}
}

func (m *OverloadMonitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("overload monitor shutting down")
			return
		case <-ticker.C:
			m.cycle()
		}
	}
}

// cycle runs one sampling pass. The breaker flag may be up to one cycle
// stale relative to the consumer's view; eventual convergence is the
// contract, not strict consistency.
func (m *OverloadMonitor) cycle() {
	if m.cfg.IdleSweepEnabled && m.manager != nil {
		m.manager.RequestSweep()
	}

	if !m.breaker.IsActive() {
		rate := m.tracker.RecentTickRate()
		if rate > m.breaker.FeedRateSpikeThreshold() {
			m.breaker.Activate(fmt.Sprintf("feed rate %d above spike threshold %d",
				rate, m.breaker.FeedRateSpikeThreshold()))
		}
		m.lowSamples = 0
		return
	}

	if m.usageLow() {
		m.lowSamples++
		if m.lowSamples >= m.cfg.LowUsageSamples {
			m.breaker.Deactivate(fmt.Sprintf("usage low for %d consecutive samples", m.lowSamples))
			m.lowSamples = 0
		}
		return
	}

	m.lowSamples = 0
}

// usageLow is the recovery predicate: the feed rate has cooled off and
// the ring has drained below the degraded band.
func (m *OverloadMonitor) usageLow() bool {
	return m.tracker.RecentTickRate() < m.cfg.LowUsageRate &&
		m.usage.Usage() < m.breaker.PartialSkipThreshold()
}
