// Package sink holds the finalized-bar consumers: the in-memory market
// store, the volume meltdown guard, and the Redis publisher, composed via
// MultiSink.
package sink

import (
	barv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1"
)

// MultiSink fans a finalized bar out to every registered sink, in order,
// synchronously on the consumer goroutine.
type MultiSink struct {
	sinks []barv1.Sink
}

// NewMultiSink composes the given sinks.
func NewMultiSink(sinks ...barv1.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// OnBarFinalized implements barv1.Sink.
func (m *MultiSink) OnBarFinalized(b barv1.Bar) {
	for _, s := range m.sinks {
		s.OnBarFinalized(b)
	}
}
