package breaker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SJParthi/IndianFutureBillionaire/internal/telemetry"
	"github.com/SJParthi/IndianFutureBillionaire/pkg/logger"
)

func testThresholds() Thresholds {
	return Thresholds{
		RingUsageMeltdown: 0.90,
		PartialSkip:       0.80,
		FeedRateSpike:     20000,
		BarVolumeMeltdown: 500000,
	}
}

func newTestBreaker(t *testing.T) (*Breaker, *telemetry.Tracker) {
	log, err := logger.NewLogger()
	require.NoError(t, err)

	tracker := telemetry.NewTracker()
	brk, err := New(testThresholds(), log, tracker)
	require.NoError(t, err)

	return brk, tracker
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(*Thresholds)
		expectError bool
	}{
		{
			name:   "valid thresholds",
			mutate: func(th *Thresholds) {},
		},
		{
			name: "partial skip equal to meltdown rejected",
			mutate: func(th *Thresholds) {
				th.PartialSkip = th.RingUsageMeltdown
			},
			expectError: true,
		},
		{
			name: "partial skip above meltdown rejected",
			mutate: func(th *Thresholds) {
				th.PartialSkip = 0.95
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := logger.NewLogger()
			require.NoError(t, err)

			th := testThresholds()
			tc.mutate(&th)

			brk, err := New(th, log, telemetry.NewTracker())
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, brk)
				return
			}

			require.NoError(t, err)
			assert.False(t, brk.IsActive())
		})
	}
}

func TestBreaker_ActivateIdempotent(t *testing.T) {
	brk, tracker := newTestBreaker(t)

	brk.Activate("ring usage spike")
	brk.Activate("second call, should be a no-op")

	assert.True(t, brk.IsActive())

	snap := tracker.Snapshot(0, brk.IsActive())
	assert.Equal(t, int64(1), snap.MeltdownTrips)
	assert.Len(t, tracker.RecentJournal(), 1)
	assert.Contains(t, tracker.RecentJournal()[0], "ring usage spike")
}

func TestBreaker_DeactivateIdempotent(t *testing.T) {
	brk, tracker := newTestBreaker(t)

	// Deactivating an inactive breaker leaves no trace.
	brk.Deactivate("nothing to do")
	assert.False(t, brk.IsActive())
	assert.Empty(t, tracker.RecentJournal())

	brk.Activate("trip")
	brk.Deactivate("usage recovered")
	brk.Deactivate("second call, should be a no-op")

	assert.False(t, brk.IsActive())
	journal := tracker.RecentJournal()
	require.Len(t, journal, 2)
	assert.Contains(t, journal[1], "usage recovered")
}

func TestBreaker_ConcurrentActivation(t *testing.T) {
	brk, tracker := newTestBreaker(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			brk.Activate("racing activation")
		}()
	}
	wg.Wait()

	assert.True(t, brk.IsActive())

	// Exactly one goroutine won the transition.
	snap := tracker.Snapshot(0, brk.IsActive())
	assert.Equal(t, int64(1), snap.MeltdownTrips)
	assert.Len(t, tracker.RecentJournal(), 1)
}

func TestBreaker_ThresholdGetters(t *testing.T) {
	brk, _ := newTestBreaker(t)

	assert.Equal(t, 0.90, brk.MeltdownRingUsageThreshold())
	assert.Equal(t, 0.80, brk.PartialSkipThreshold())
	assert.Equal(t, int64(20000), brk.FeedRateSpikeThreshold())
	assert.Equal(t, int64(500000), brk.BarVolumeMeltdownThreshold())
}
