package engine

import (
	"math"

	barv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/config"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

// TimeframeAggregator runs the bar state machine for every instrument on
// one timeframe. All methods execute on the consumer goroutine, so the
// state map needs no locking.
type TimeframeAggregator struct {
	timeframe string

	// duration and halfDuration are the timeframe length in nanoseconds.
	duration     int64
	halfDuration int64
	quietZone    int64

	cfg    config.AggregatorConfig
	sink   barv1.Sink
	logger logger.Interface

	states map[uint64]*BarState
}

// NewTimeframeAggregator builds the aggregator for one timeframe. An
// unparseable timeframe string degrades to the 1-minute default and is
// logged rather than surfaced as an error.
func NewTimeframeAggregator(timeframe string, cfg config.AggregatorConfig, sink barv1.Sink, log logger.Interface) *TimeframeAggregator {
	dur, err := ParseTimeframe(timeframe)
	if err != nil {
		log.Warn("unparseable timeframe, falling back to 1m",
			logger.Field{Key: "timeframe", Value: timeframe},
		)
		dur = DefaultTimeframeDuration
	}

	return &TimeframeAggregator{
		timeframe:    timeframe,
		duration:     int64(dur),
		halfDuration: int64(dur) / 2,
		quietZone:    int64(cfg.QuietZoneThresholdMinutes) * 60 * 1e9,
		cfg:          cfg,
		sink:         sink,
		logger:       log,
		states:       make(map[uint64]*BarState),
	}
}

// Timeframe returns the timeframe label this aggregator covers.
func (a *TimeframeAggregator) Timeframe() string {
	return a.timeframe
}

// OnTick advances the bar state machine for one tick. Checks run in fixed
// order: quiet zone, sub-cycle split, open-or-update (which folds in the
// shock and soft-close checks). Zero or one finalized bar per call.
func (a *TimeframeAggregator) OnTick(token uint64, price float64, evtTime int64) {
	st, ok := a.states[token]
	if !ok {
		st = &BarState{token: token}
		a.states[token] = st
	}

	a.checkQuietZone(st, evtTime)

	// A split consumes the tick as the reopened bar's seed, so the
	// open-or-update step must not apply it a second time.
	if a.cfg.SubCycle && st.barOpen && a.maybeSplitMidCycle(st, price, evtTime) {
		st.lastTickTime = evtTime
		return
	}

	if !st.barOpen {
		a.startBar(st, price, evtTime)
	} else {
		a.updateBar(st, price, evtTime)
	}

	st.lastTickTime = evtTime
}

// checkQuietZone finalizes a stale bar before the new tick is processed.
// This only ever fires on the next tick after a quiet period; the idle
// sweep covers instruments that stop ticking entirely.
func (a *TimeframeAggregator) checkQuietZone(st *BarState, evtTime int64) {
	if !st.barOpen {
		return
	}

	if a.elapsed(st, evtTime, st.lastTickTime) > a.quietZone {
		a.logger.Debug("quiet zone, finalizing bar",
			logger.Field{Key: "token", Value: st.token},
			logger.Field{Key: "timeframe", Value: a.timeframe},
		)
		a.finalizeBar(st, barv1.ReasonQuietZone)
	}
}

// maybeSplitMidCycle forcibly finalizes a bar once past half its
// timeframe duration, then reopens it seeded with the current tick and
// reports true. The split-done flag keeps the reopened second-half bar
// from splitting again, so at most one split happens per full cycle.
func (a *TimeframeAggregator) maybeSplitMidCycle(st *BarState, price float64, evtTime int64) bool {
	if st.subCycleSplitDone {
		return false
	}

	if a.elapsed(st, evtTime, st.openTime) <= a.halfDuration {
		return false
	}

	a.logger.Debug("sub-cycle split, finalizing bar",
		logger.Field{Key: "token", Value: st.token},
		logger.Field{Key: "timeframe", Value: a.timeframe},
	)
	a.finalizeBar(st, barv1.ReasonSubCycleSplit)
	a.startBar(st, price, evtTime)
	st.subCycleSplitDone = true
	return true
}

func (a *TimeframeAggregator) startBar(st *BarState, price float64, evtTime int64) {
	st.barOpen = true
	st.openTime = evtTime
	st.open = price
	st.high = price
	st.low = price
	st.close = price
	st.volume = 1
}

func (a *TimeframeAggregator) updateBar(st *BarState, price float64, evtTime int64) {
	if price > st.high {
		st.high = price
	}
	if price < st.low {
		st.low = price
	}
	st.close = price
	st.volume++

	// Partial-bar shock: a large move from the bar open finalizes
	// immediately. Guarded against a zero open.
	if a.cfg.EnablePartialBars && st.open != 0 {
		perc := math.Abs(price-st.open) / st.open
		if perc >= a.cfg.PartialBarThresholdPercent {
			a.logger.Debug("shock bar, finalizing",
				logger.Field{Key: "token", Value: st.token},
				logger.Field{Key: "timeframe", Value: a.timeframe},
				logger.Field{Key: "movePercent", Value: perc},
			)
			a.finalizeBar(st, barv1.ReasonShock)
			return
		}
	}

	// Soft close: the first pass over the duration boundary keeps the bar
	// open for one more tick; the next pass finalizes.
	if a.elapsed(st, evtTime, st.openTime) >= a.duration {
		if !st.softClosed {
			st.softClosed = true
		} else {
			a.finalizeBar(st, barv1.ReasonNormal)
		}
	}
}

// finalizeBar snapshots the state into an immutable Bar, resets the flags
// so the same storage carries the next bar, then hands the bar to the
// sink. A never-opened state still yields a well-formed zero-volume bar.
func (a *TimeframeAggregator) finalizeBar(st *BarState, reason barv1.Reason) {
	b := barv1.Bar{
		InstrumentID: st.token,
		Timeframe:    a.timeframe,
		Open:         st.open,
		High:         st.high,
		Low:          st.low,
		Close:        st.close,
		Volume:       st.volume,
		StartTime:    st.openTime,
		EndTime:      st.lastTickTime,
		Reason:       reason,
	}

	// Reset before the sink sees the bar: if a sink panics mid-delivery,
	// the window is already closed and can never be emitted twice.
	st.barOpen = false
	st.softClosed = false
	st.subCycleSplitDone = false

	a.sink.OnBarFinalized(b)
}

// SweepIdle finalizes every open bar whose last tick is older than
// maxIdle nanoseconds, returning the number of bars flushed. Runs on the
// consumer goroutine only.
func (a *TimeframeAggregator) SweepIdle(nowNanos, maxIdle int64) int {
	flushed := 0
	for _, st := range a.states {
		if !st.barOpen {
			continue
		}
		if nowNanos-st.lastTickTime > maxIdle {
			a.finalizeBar(st, barv1.ReasonQuietZone)
			flushed++
		}
	}
	return flushed
}

// elapsed returns evtTime-from clamped at zero. Out-of-order event
// timestamps are tolerated; a regression is logged instead of letting a
// negative elapsed mis-trigger finalization.
func (a *TimeframeAggregator) elapsed(st *BarState, evtTime, from int64) int64 {
	d := evtTime - from
	if d < 0 {
		a.logger.Warn("non-monotonic event time",
			logger.Field{Key: "token", Value: st.token},
			logger.Field{Key: "timeframe", Value: a.timeframe},
			logger.Field{Key: "regressionNanos", Value: -d},
		)
		return 0
	}
	return d
}
