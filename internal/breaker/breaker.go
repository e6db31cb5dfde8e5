// Package breaker implements the meltdown circuit breaker: a single
// atomic flag plus the overload thresholds shared by the dispatch gate,
// the overload monitor, and order-admission readers.
package breaker

import (
	"fmt"
	"time"

	"github.com/SJParthi/IndianFutureBillionaire/internal/telemetry"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/errors"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"

	"sync/atomic"
)

// Thresholds holds the immutable overload limits the breaker is built with.
type Thresholds struct {
	// RingUsageMeltdown trips the breaker once ingestion ring usage
	// exceeds it, e.g. 0.90.
	RingUsageMeltdown float64

	// PartialSkip marks the start of the degraded band; must be below
	// RingUsageMeltdown, e.g. 0.80.
	PartialSkip float64

	// FeedRateSpike trips the breaker when the one-second tick rate
	// exceeds it.
	FeedRateSpike int64

	// BarVolumeMeltdown trips the breaker when a finalized bar carries
	// more volume than it.
	BarVolumeMeltdown int64
}

// Breaker is the global meltdown flag. Mutated only via compare-and-set,
// so concurrent activations log exactly one transition per edge.
type Breaker struct {
	active     atomic.Bool
	thresholds Thresholds

	logger  logger.Interface
	tracker *telemetry.Tracker
}

// New validates the thresholds and returns a Breaker in the inactive state.
func New(thresholds Thresholds, log logger.Interface, tracker *telemetry.Tracker) (*Breaker, error) {
	if thresholds.PartialSkip >= thresholds.RingUsageMeltdown {
		return nil, errors.NewErrorDetails(
			"partial skip threshold must be below the meltdown threshold",
			string(errors.ConfigThresholdError),
			"PartialSkip",
		)
	}

	return &Breaker{
		thresholds: thresholds,
		logger:     log,
		tracker:    tracker,
	}, nil
}

// IsActive reports whether meltdown mode is engaged. Lock-free; read on
// every tick by the dispatch gate and independently by order-admission
// logic.
func (b *Breaker) IsActive() bool {
	return b.active.Load()
}

// Activate engages meltdown mode. Idempotent: only the caller that wins
// the false→true compare-and-set logs and journals the transition.
func (b *Breaker) Activate(reason string) {
	if !b.active.CompareAndSwap(false, true) {
		return
	}

	b.tracker.CountMeltdownTrip()
	b.tracker.AppendJournal(fmt.Sprintf("%s meltdown ACTIVATED: %s", time.Now().Format(time.RFC3339), reason))
	b.logger.Warn("meltdown mode activated, aggregator skip engaged", logger.Field{
		Key:   "reason",
		Value: reason,
	})
}

// Deactivate disengages meltdown mode. Idempotent via true→false
// compare-and-set.
func (b *Breaker) Deactivate(reason string) {
	if !b.active.CompareAndSwap(true, false) {
		return
	}

	b.tracker.AppendJournal(fmt.Sprintf("%s meltdown deactivated: %s", time.Now().Format(time.RFC3339), reason))
	b.logger.Info("meltdown deactivated, aggregator resumed", logger.Field{
		Key:   "reason",
		Value: reason,
	})
}

// MeltdownRingUsageThreshold returns the ring usage fraction above which
// the breaker trips.
func (b *Breaker) MeltdownRingUsageThreshold() float64 {
	return b.thresholds.RingUsageMeltdown
}

// PartialSkipThreshold returns the ring usage fraction where the degraded
// partial-skip band starts.
func (b *Breaker) PartialSkipThreshold() float64 {
	return b.thresholds.PartialSkip
}

// FeedRateSpikeThreshold returns the ticks-per-second rate above which
// the monitor trips the breaker.
func (b *Breaker) FeedRateSpikeThreshold() int64 {
	return b.thresholds.FeedRateSpike
}

// BarVolumeMeltdownThreshold returns the single-bar volume above which a
// finalized bar trips the breaker.
func (b *Breaker) BarVolumeMeltdownThreshold() int64 {
	return b.thresholds.BarVolumeMeltdown
}
