package ring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tickv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/tick/v1"
)

func tick(id uint64, price float64) tickv1.Tick {
	return tickv1.Tick{
		InstrumentID: id,
		Price:        price,
		EventTime:    time.Now().UnixNano(),
		ArrivalTime:  time.Now().UnixNano(),
	}
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name        string
		capacity    int
		expectedCap int
		expectError bool
	}{
		{
			name:        "power of two kept as is",
			capacity:    64,
			expectedCap: 64,
		},
		{
			name:        "rounded up to next power of two",
			capacity:    100,
			expectedCap: 128,
		},
		{
			name:        "minimum capacity of two",
			capacity:    1,
			expectedCap: 2,
		},
		{
			name:        "zero capacity rejected",
			capacity:    0,
			expectError: true,
		},
		{
			name:        "negative capacity rejected",
			capacity:    -8,
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(tc.capacity)
			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, r)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedCap, r.Cap())
			assert.Equal(t, 0, r.Len())
		})
	}
}

func TestRing_FIFO(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.True(t, r.TryPublish(tick(uint64(i), float64(i)*10)))
	}
	assert.Equal(t, 5, r.Len())

	for i := 0; i < 5; i++ {
		got, ok := r.TryNext()
		require.True(t, ok)
		assert.Equal(t, uint64(i), got.InstrumentID)
		assert.Equal(t, float64(i)*10, got.Price)
	}

	_, ok := r.TryNext()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRing_TryPublishFull(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)

	for i := 0; i < r.Cap(); i++ {
		require.True(t, r.TryPublish(tick(uint64(i), 1)))
	}

	assert.False(t, r.TryPublish(tick(99, 1)))
	assert.Equal(t, 0, r.RemainingCapacity())

	// Draining one slot makes room again.
	_, ok := r.TryNext()
	require.True(t, ok)
	assert.True(t, r.TryPublish(tick(99, 1)))
}

func TestRing_WrapAround(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)

	// Push the sequences well past the buffer length so the mask wraps.
	for i := 0; i < 100; i++ {
		require.True(t, r.TryPublish(tick(uint64(i), float64(i))))
		got, ok := r.TryNext()
		require.True(t, ok)
		assert.Equal(t, uint64(i), got.InstrumentID)
	}
}

func TestRing_Usage(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.Usage())

	require.True(t, r.TryPublish(tick(1, 1)))
	require.True(t, r.TryPublish(tick(2, 1)))
	assert.InDelta(t, 0.5, r.Usage(), 1e-9)

	require.True(t, r.TryPublish(tick(3, 1)))
	require.True(t, r.TryPublish(tick(4, 1)))
	assert.InDelta(t, 1.0, r.Usage(), 1e-9)
}

func TestRing_NextContextCancelled(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRing_NextReceivesPublished(t *testing.T) {
	r, err := New(4)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		r.Publish(tick(7, 42))
	}()

	got, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), got.InstrumentID)
	assert.Equal(t, 42.0, got.Price)
}

func TestRing_ProducerConsumerOrdering(t *testing.T) {
	r, err := New(16)
	require.NoError(t, err)

	const total = 10000
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			r.Publish(tick(uint64(i), float64(i)))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := 0; i < total; i++ {
		got, err := r.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(i), got.InstrumentID)
	}

	<-done
	assert.Equal(t, 0, r.Len())
}
