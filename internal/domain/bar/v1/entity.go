package bar

// Reason records which trigger finalized a bar.
type Reason string

const (
	// ReasonNormal is a bar closed because its timeframe duration elapsed.
	ReasonNormal Reason = "NORMAL"
	// ReasonShock is a bar closed early because price moved past the
	// partial-bar threshold relative to the bar open.
	ReasonShock Reason = "SHOCK"
	// ReasonQuietZone is a bar closed because its instrument went silent
	// longer than the quiet-zone timeout.
	ReasonQuietZone Reason = "QUIET_ZONE"
	// ReasonSubCycleSplit is a bar forcibly closed at the half-duration
	// point of its timeframe.
	ReasonSubCycleSplit Reason = "SUBCYCLE_SPLIT"
)

// Bar is an immutable OHLCV summary for one instrument over one timeframe
// window. It is emitted exactly once per finalize event and owned by the
// sink afterwards.
type Bar struct {
	InstrumentID uint64  `json:"instrumentId"`
	Timeframe    string  `json:"timeframe"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       uint64  `json:"volume"`
	StartTime    int64   `json:"startTime"`
	EndTime      int64   `json:"endTime"`
	Reason       Reason  `json:"reason"`
}
