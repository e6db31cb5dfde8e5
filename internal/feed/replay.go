package feed

import (
	"context"
	"time"

	tickv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/tick/v1"
	"github.com/SJParthi/IndianFutureBillionaire/internal/ring"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

// ReplayFeed publishes a scripted tick sequence into the ring, optionally
// pacing publishes with a fixed delay. Used for backtests and for
// exercising the meltdown path under a controlled burst.
type ReplayFeed struct {
	ring   *ring.Ring
	logger logger.Interface

	// Delay between publishes; zero replays as fast as the ring accepts.
	Delay time.Duration
}

// NewReplayFeed wires the replay feed to the ring.
func NewReplayFeed(r *ring.Ring, log logger.Interface) *ReplayFeed {
	return &ReplayFeed{
		ring:   r,
		logger: log,
	}
}

// Replay publishes the ticks in order, stamping arrival time at publish.
// Returns the number published; stops early if ctx is cancelled.
func (f *ReplayFeed) Replay(ctx context.Context, ticks []tickv1.Tick) int {
	published := 0
	for _, t := range ticks {
		select {
		case <-ctx.Done():
			f.logger.Info("replay cancelled", logger.Field{
				Key:   "published",
				Value: published,
			})
			return published
		default:
		}

		t.ArrivalTime = time.Now().UnixNano()
		f.ring.Publish(t)
		published++

		if f.Delay > 0 {
			time.Sleep(f.Delay)
		}
	}

	f.logger.Info("replay finished", logger.Field{
		Key:   "published",
		Value: published,
	})
	return published
}
