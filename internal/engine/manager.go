package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/SJParthi/IndianFutureBillionaire/internal/breaker"
	barv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1"
	tickv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/tick/v1"
	"github.com/SJParthi/IndianFutureBillionaire/internal/telemetry"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/config"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

// Manager fans ticks out to one aggregator per configured timeframe and
// applies the circuit-breaker gate in front of them. All processing
// happens on the consumer goroutine; the overload monitor only interacts
// through the breaker and the sweep request flag.
type Manager struct {
	cfg     config.AggregatorConfig
	breaker *breaker.Breaker
	usage   telemetry.UsageSource
	tracker *telemetry.Tracker
	logger  logger.Interface

	// Ordered by configured timeframe so partial skip alternates
	// deterministically by index.
	aggregators []*TimeframeAggregator

	sweepRequested atomic.Bool
	sweepMaxAge    int64
}

// NewManager builds one TimeframeAggregator per configured timeframe, all
// sharing the given sink.
func NewManager(
	cfg config.AggregatorConfig,
	brk *breaker.Breaker,
	usage telemetry.UsageSource,
	tracker *telemetry.Tracker,
	sink barv1.Sink,
	log logger.Interface,
	sweepMaxAge time.Duration,
) *Manager {
	timeframes := cfg.MultiTimeframes
	if len(timeframes) == 0 {
		timeframes = []string{cfg.DefaultTimeframe}
	}

	aggregators := make([]*TimeframeAggregator, 0, len(timeframes))
	for _, tf := range timeframes {
		aggregators = append(aggregators, NewTimeframeAggregator(tf, cfg, sink, log))
	}

	log.Info("aggregation manager initialized", logger.Field{
		Key:   "timeframes",
		Value: timeframes,
	})

	return &Manager{
		cfg:         cfg,
		breaker:     brk,
		usage:       usage,
		tracker:     tracker,
		logger:      log,
		aggregators: aggregators,
		sweepMaxAge: int64(sweepMaxAge),
	}
}

// ProcessTick applies the gate and dispatches one tick. The feed rate is
// recorded before the gate so dropped ticks still count toward the
// overload signal.
func (m *Manager) ProcessTick(t tickv1.Tick) {
	m.tracker.RecordTick(time.Now().UnixNano())

	// Full meltdown: O(1) drop, the engine is never invoked.
	if m.breaker.IsActive() {
		m.tracker.CountMeltdownDrop()
		return
	}

	usage := m.usage.Usage()

	if usage >= m.breaker.PartialSkipThreshold() && usage < m.breaker.MeltdownRingUsageThreshold() {
		m.partialDispatch(t)
	} else {
		for _, agg := range m.aggregators {
			agg.OnTick(t.InstrumentID, t.Price, t.EventTime)
		}
	}

	if usage > m.breaker.MeltdownRingUsageThreshold() {
		m.breaker.Activate(fmt.Sprintf("ring usage %.2f above meltdown threshold %.2f",
			usage, m.breaker.MeltdownRingUsageThreshold()))
	}
}

// partialDispatch routes the tick to alternate timeframes only, trading
// completeness for reduced load without a full halt.
func (m *Manager) partialDispatch(t tickv1.Tick) {
	for i, agg := range m.aggregators {
		if i%2 == 1 {
			agg.OnTick(t.InstrumentID, t.Price, t.EventTime)
		} else {
			m.tracker.CountPartialSkip()
		}
	}
}

// RequestSweep asks the consumer goroutine to run an idle-bar sweep at
// its next opportunity. Safe to call from the monitor goroutine.
func (m *Manager) RequestSweep() {
	m.sweepRequested.Store(true)
}

// RunPendingSweep executes a requested idle-bar sweep. Must be called
// from the consumer goroutine, which owns all bar state.
func (m *Manager) RunPendingSweep(nowNanos int64) {
	if !m.sweepRequested.CompareAndSwap(true, false) {
		return
	}

	flushed := 0
	for _, agg := range m.aggregators {
		flushed += agg.SweepIdle(nowNanos, m.sweepMaxAge)
	}

	if flushed > 0 {
		for i := 0; i < flushed; i++ {
			m.tracker.CountIdleSweepFlush()
		}
		m.logger.Debug("idle-bar sweep flushed bars", logger.Field{
			Key:   "flushed",
			Value: flushed,
		})
	}
}

// Timeframes returns the configured timeframe labels in dispatch order.
func (m *Manager) Timeframes() []string {
	out := make([]string, len(m.aggregators))
	for i, agg := range m.aggregators {
		out[i] = agg.Timeframe()
	}
	return out
}
