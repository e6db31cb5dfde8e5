package bar

// Sink accepts finalized bars. Implementations run inline on the
// aggregation goroutine and must not block significantly.
//
//go:generate mockgen -source interface.go -destination=mock/sink_mock.go -package=bar_mock
type Sink interface {
	OnBarFinalized(b Bar)
}
