// Package telemetry tracks the feed-rate counter, drop counters and the
// bounded meltdown journal read by external dashboards.
package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// journalLimit bounds the meltdown journal to the most recent entries.
const journalLimit = 200

const second = int64(time.Second)

// UsageSource reports ingestion channel occupancy as a fraction in [0, 1].
type UsageSource interface {
	Usage() float64
}

// Snapshot is the dashboard view of the aggregation core.
type Snapshot struct {
	RingUsagePercent float64  `json:"ringUsagePercent"`
	RecentTickRate   int64    `json:"recentTickRate"`
	MeltdownActive   bool     `json:"meltdownActive"`
	MeltdownTrips    int64    `json:"meltdownTrips"`
	MeltdownDrops    int64    `json:"meltdownDrops"`
	PartialSkips     int64    `json:"partialSkips"`
	IdleSweepFlushes int64    `json:"idleSweepFlushes"`
	MeltdownJournal  []string `json:"meltdownJournal"`
}

// Tracker accumulates the feed-rate window and overload counters. The
// consumer goroutine writes the tick counter; the monitor and dashboard
// readers only touch atomics, plus a mutex around the journal.
type Tracker struct {
	tickCount   atomic.Int64
	windowStart atomic.Int64 // unix nanos of the current one-second window
	recentRate  atomic.Int64 // ticks counted in the prior full window

	meltdownTrips    atomic.Int64
	meltdownDrops    atomic.Int64
	partialSkips     atomic.Int64
	idleSweepFlushes atomic.Int64

	mu      sync.Mutex
	journal []string
}

// NewTracker creates a Tracker with the feed-rate window anchored at now.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.windowStart.Store(time.Now().UnixNano())
	return t
}

// RecordTick counts one tick toward the current one-second window. Once a
// full second has elapsed the window tumbles: the count becomes the
// published recent rate and the counter resets. Called only from the
// consumer goroutine, before the meltdown gate, so dropped ticks still
// count toward the feed rate.
func (t *Tracker) RecordTick(nowNanos int64) {
	t.tickCount.Add(1)

	start := t.windowStart.Load()
	if nowNanos-start < second {
		return
	}

	t.recentRate.Store(t.tickCount.Swap(0))
	t.windowStart.Store(nowNanos)
}

// RecentTickRate returns the ticks counted in the prior full one-second
// window. A tumbling window, not sliding.
func (t *Tracker) RecentTickRate() int64 {
	return t.recentRate.Load()
}

// CountMeltdownTrip records one breaker activation edge.
func (t *Tracker) CountMeltdownTrip() {
	t.meltdownTrips.Add(1)
}

// CountMeltdownDrop records one tick dropped by the full-meltdown gate.
func (t *Tracker) CountMeltdownDrop() {
	t.meltdownDrops.Add(1)
}

// CountPartialSkip records one aggregator dispatch skipped in the
// partial-skip band.
func (t *Tracker) CountPartialSkip() {
	t.partialSkips.Add(1)
}

// CountIdleSweepFlush records one bar finalized by the idle-bar sweep.
func (t *Tracker) CountIdleSweepFlush() {
	t.idleSweepFlushes.Add(1)
}

// AppendJournal adds a human-readable transition event to the bounded
// meltdown journal. Appended to by the circuit breaker, never by the
// aggregation engine.
func (t *Tracker) AppendJournal(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.journal = append(t.journal, msg)
	if len(t.journal) > journalLimit {
		t.journal = t.journal[len(t.journal)-journalLimit:]
	}
}

// RecentJournal returns a copy of the meltdown journal, oldest first.
func (t *Tracker) RecentJournal() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.journal))
	copy(out, t.journal)
	return out
}

// Snapshot assembles the dashboard view. usage comes from the ingestion
// ring; meltdownActive from the circuit breaker.
func (t *Tracker) Snapshot(usage float64, meltdownActive bool) Snapshot {
	return Snapshot{
		RingUsagePercent: usage * 100.0,
		RecentTickRate:   t.RecentTickRate(),
		MeltdownActive:   meltdownActive,
		MeltdownTrips:    t.meltdownTrips.Load(),
		MeltdownDrops:    t.meltdownDrops.Load(),
		PartialSkips:     t.partialSkips.Load(),
		IdleSweepFlushes: t.idleSweepFlushes.Load(),
		MeltdownJournal:  t.RecentJournal(),
	}
}
