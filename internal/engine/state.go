package engine

// BarState is the mutable per-(instrument, timeframe) aggregation state.
// It is exclusively owned by the consumer goroutine and reused across
// bars: finalize resets the flags instead of reallocating.
type BarState struct {
	token uint64

	barOpen           bool
	softClosed        bool
	subCycleSplitDone bool

	openTime     int64
	lastTickTime int64

	open, high, low, close float64
	volume                 uint64
}
