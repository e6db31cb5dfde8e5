package tick

// Tick is the immutable envelope carried through the ingestion ring.
// A feed adapter produces it, the aggregation loop consumes it exactly
// once, and nothing retains it afterwards.
type Tick struct {
	InstrumentID uint64
	Price        float64

	// EventTime is the exchange-side timestamp, ArrivalTime the local
	// receive timestamp. Both are unix nanoseconds.
	EventTime   int64
	ArrivalTime int64
}
