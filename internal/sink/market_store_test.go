package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	barv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1"
)

func finalizedBar(id uint64, close float64, volume uint64) barv1.Bar {
	return barv1.Bar{
		InstrumentID: id,
		Timeframe:    "1m",
		Close:        close,
		Volume:       volume,
		Reason:       barv1.ReasonNormal,
	}
}

func TestMarketStore_OnBarFinalized(t *testing.T) {
	store := NewMarketStore()

	_, ok := store.LTP(1)
	assert.False(t, ok)

	store.OnBarFinalized(finalizedBar(1, 100.5, 10))
	store.OnBarFinalized(finalizedBar(1, 101.0, 5))

	ltp, ok := store.LTP(1)
	require.True(t, ok)
	assert.Equal(t, 101.0, ltp)

	// Volume accrues across bars.
	vol, ok := store.Volume(1)
	require.True(t, ok)
	assert.Equal(t, uint64(15), vol)
}

func TestMarketStore_Rankings(t *testing.T) {
	store := NewMarketStore()

	store.SetPrevClose(1, 100.0)
	store.SetPrevClose(2, 100.0)
	store.SetPrevClose(3, 100.0)

	store.OnBarFinalized(finalizedBar(1, 110.0, 10)) // +10%
	store.OnBarFinalized(finalizedBar(2, 95.0, 50))  // -5%
	store.OnBarFinalized(finalizedBar(3, 102.0, 30)) // +2%
	store.OnBarFinalized(finalizedBar(4, 500.0, 99)) // no prev close

	gainers := store.TopGainers(10)
	require.Len(t, gainers, 3)
	assert.Equal(t, uint64(1), gainers[0].InstrumentID)
	assert.InDelta(t, 10.0, gainers[0].PercentChange, 1e-9)
	assert.Equal(t, uint64(3), gainers[1].InstrumentID)
	assert.Equal(t, uint64(2), gainers[2].InstrumentID)

	losers := store.TopLosers(2)
	require.Len(t, losers, 2)
	assert.Equal(t, uint64(2), losers[0].InstrumentID)
	assert.InDelta(t, -5.0, losers[0].PercentChange, 1e-9)
	assert.Equal(t, uint64(3), losers[1].InstrumentID)

	// Volume ranking includes instruments without a previous close.
	byVolume := store.TopByVolume(2)
	require.Len(t, byVolume, 2)
	assert.Equal(t, uint64(4), byVolume[0].InstrumentID)
	assert.Equal(t, uint64(2), byVolume[1].InstrumentID)
}

func TestMarketStore_RankingLimit(t *testing.T) {
	store := NewMarketStore()

	store.SetPrevClose(1, 100.0)
	store.OnBarFinalized(finalizedBar(1, 105.0, 1))

	assert.Len(t, store.TopGainers(0), 0)
	assert.Len(t, store.TopGainers(5), 1)
}

func TestMarketStore_SetPrevCloseBeforeBars(t *testing.T) {
	store := NewMarketStore()

	// Seeding the previous close must not fabricate an LTP.
	store.SetPrevClose(9, 250.0)

	ltp, ok := store.LTP(9)
	assert.True(t, ok)
	assert.Equal(t, 0.0, ltp)

	store.OnBarFinalized(finalizedBar(9, 275.0, 3))
	gainers := store.TopGainers(1)
	require.Len(t, gainers, 1)
	assert.InDelta(t, 10.0, gainers[0].PercentChange, 1e-9)
}
