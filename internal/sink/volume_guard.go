package sink

import (
	"fmt"

	"github.com/SJParthi/IndianFutureBillionaire/internal/breaker"
	barv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

// VolumeGuard is the bar-volume meltdown trigger: a finalized bar carrying
// more volume than the configured threshold trips the circuit breaker.
type VolumeGuard struct {
	breaker *breaker.Breaker
	logger  logger.Interface
}

// NewVolumeGuard wires the guard to the breaker.
func NewVolumeGuard(brk *breaker.Breaker, log logger.Interface) *VolumeGuard {
	return &VolumeGuard{
		breaker: brk,
		logger:  log,
	}
}

// OnBarFinalized implements barv1.Sink.
func (g *VolumeGuard) OnBarFinalized(b barv1.Bar) {
	threshold := g.breaker.BarVolumeMeltdownThreshold()
	if threshold <= 0 {
		return
	}

	if int64(b.Volume) > threshold && !g.breaker.IsActive() {
		g.logger.Warn("bar volume spike",
			logger.Field{Key: "instrumentId", Value: b.InstrumentID},
			logger.Field{Key: "timeframe", Value: b.Timeframe},
			logger.Field{Key: "volume", Value: b.Volume},
			logger.Field{Key: "threshold", Value: threshold},
		)
		g.breaker.Activate(fmt.Sprintf("bar volume %d above threshold %d", b.Volume, threshold))
	}
}
