package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SJParthi/IndianFutureBillionaire/internal/breaker"
	barv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1"
	tickv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/tick/v1"
	"github.com/SJParthi/IndianFutureBillionaire/internal/telemetry"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/config"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

// usageStub reports a fixed ring usage.
type usageStub struct {
	value float64
}

func (u *usageStub) Usage() float64 {
	return u.value
}

type managerFixture struct {
	tracker *telemetry.Tracker
	breaker *breaker.Breaker
	usage   *usageStub
	sink    *captureSink
	logger  *logger.Logger
}

func setupManagerFixture(t *testing.T) *managerFixture {
	log, err := logger.NewLogger()
	require.NoError(t, err)

	tracker := telemetry.NewTracker()
	brk, err := breaker.New(breaker.Thresholds{
		RingUsageMeltdown: 0.90,
		PartialSkip:       0.80,
		FeedRateSpike:     20000,
		BarVolumeMeltdown: 500000,
	}, log, tracker)
	require.NoError(t, err)

	return &managerFixture{
		tracker: tracker,
		breaker: brk,
		usage:   &usageStub{},
		sink:    &captureSink{},
		logger:  log,
	}
}

func (f *managerFixture) newManager(cfg config.AggregatorConfig) *Manager {
	return NewManager(cfg, f.breaker, f.usage, f.tracker, f.sink, f.logger, 5*time.Minute)
}

func multiTimeframeConfig() config.AggregatorConfig {
	cfg := testAggregatorConfig()
	cfg.MultiTimeframes = []string{"1m", "5m", "15m"}
	return cfg
}

func TestManager_MeltdownDropsTicks(t *testing.T) {
	fixture := setupManagerFixture(t)
	m := fixture.newManager(multiTimeframeConfig())

	fixture.breaker.Activate("test trip")

	// A shock pair that would otherwise finalize a bar per timeframe.
	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 100.0, EventTime: at(0)})
	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 103.0, EventTime: at(time.Second)})

	assert.Empty(t, fixture.sink.bars)

	snap := fixture.tracker.Snapshot(fixture.usage.Usage(), fixture.breaker.IsActive())
	assert.Equal(t, int64(2), snap.MeltdownDrops)
	assert.True(t, snap.MeltdownActive)
}

func TestManager_FullDispatchBelowPartialBand(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.usage.value = 0.50
	m := fixture.newManager(multiTimeframeConfig())

	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 100.0, EventTime: at(0)})
	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 103.0, EventTime: at(time.Second)})

	// Every timeframe saw the shock pair.
	require.Len(t, fixture.sink.bars, 3)
	seen := map[string]bool{}
	for _, b := range fixture.sink.bars {
		assert.Equal(t, barv1.ReasonShock, b.Reason)
		seen[b.Timeframe] = true
	}
	assert.Equal(t, map[string]bool{"1m": true, "5m": true, "15m": true}, seen)

	snap := fixture.tracker.Snapshot(fixture.usage.Usage(), fixture.breaker.IsActive())
	assert.Equal(t, int64(0), snap.PartialSkips)
	assert.False(t, fixture.breaker.IsActive())
}

func TestManager_PartialBandDispatchesAlternateTimeframes(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.usage.value = 0.85
	m := fixture.newManager(multiTimeframeConfig())

	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 100.0, EventTime: at(0)})
	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 103.0, EventTime: at(time.Second)})

	// Only the odd-index timeframe processed the pair.
	require.Len(t, fixture.sink.bars, 1)
	assert.Equal(t, "5m", fixture.sink.bars[0].Timeframe)
	assert.Equal(t, barv1.ReasonShock, fixture.sink.bars[0].Reason)

	// Two skipped timeframes per tick.
	snap := fixture.tracker.Snapshot(fixture.usage.Usage(), fixture.breaker.IsActive())
	assert.Equal(t, int64(4), snap.PartialSkips)
	assert.False(t, fixture.breaker.IsActive())
}

func TestManager_UsageAboveMeltdownTripsBreaker(t *testing.T) {
	fixture := setupManagerFixture(t)
	fixture.usage.value = 0.95
	m := fixture.newManager(multiTimeframeConfig())

	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 100.0, EventTime: at(0)})

	// The tick itself was still dispatched; the trip happens after.
	assert.True(t, fixture.breaker.IsActive())
	snap := fixture.tracker.Snapshot(fixture.usage.Usage(), fixture.breaker.IsActive())
	assert.Equal(t, int64(1), snap.MeltdownTrips)

	// The next tick hits the engaged gate.
	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 101.0, EventTime: at(time.Second)})
	snap = fixture.tracker.Snapshot(fixture.usage.Usage(), fixture.breaker.IsActive())
	assert.Equal(t, int64(1), snap.MeltdownDrops)
}

func TestManager_SweepRunsOnlyWhenRequested(t *testing.T) {
	fixture := setupManagerFixture(t)
	m := fixture.newManager(multiTimeframeConfig())

	m.ProcessTick(tickv1.Tick{InstrumentID: 1, Price: 100.0, EventTime: at(0)})
	require.Empty(t, fixture.sink.bars)

	// No request pending: nothing happens.
	m.RunPendingSweep(at(10 * time.Minute))
	assert.Empty(t, fixture.sink.bars)

	m.RequestSweep()
	m.RunPendingSweep(at(10 * time.Minute))

	// One stale bar per timeframe.
	require.Len(t, fixture.sink.bars, 3)
	for _, b := range fixture.sink.bars {
		assert.Equal(t, barv1.ReasonQuietZone, b.Reason)
	}
	snap := fixture.tracker.Snapshot(fixture.usage.Usage(), fixture.breaker.IsActive())
	assert.Equal(t, int64(3), snap.IdleSweepFlushes)

	// The request was consumed.
	m.RunPendingSweep(at(20 * time.Minute))
	assert.Len(t, fixture.sink.bars, 3)
}

func TestManager_Timeframes(t *testing.T) {
	fixture := setupManagerFixture(t)

	m := fixture.newManager(multiTimeframeConfig())
	assert.Equal(t, []string{"1m", "5m", "15m"}, m.Timeframes())

	cfg := testAggregatorConfig()
	cfg.MultiTimeframes = nil
	cfg.DefaultTimeframe = "1m"
	m = fixture.newManager(cfg)
	assert.Equal(t, []string{"1m"}, m.Timeframes())
}
