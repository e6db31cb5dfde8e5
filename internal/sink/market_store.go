package sink

import (
	"sort"
	"sync"

	barv1 "github.com/SJParthi/IndianFutureBillionaire/internal/domain/bar/v1"
)

// InstrumentChange is the dashboard row for one instrument: last traded
// price, previous close, percent change and cumulative volume.
type InstrumentChange struct {
	InstrumentID  uint64  `json:"instrumentId"`
	LTP           float64 `json:"ltp"`
	PrevClose     float64 `json:"prevClose"`
	PercentChange float64 `json:"percentChange"`
	Volume        uint64  `json:"volume"`
}

type quote struct {
	ltp       float64
	prevClose float64
	volume    uint64
}

// MarketStore keeps the last traded price and cumulative volume per
// instrument, derived from finalized bars. Written by the consumer
// goroutine via OnBarFinalized, read concurrently by dashboards.
type MarketStore struct {
	mu     sync.RWMutex
	quotes map[uint64]*quote
}

// NewMarketStore creates an empty store.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		quotes: make(map[uint64]*quote),
	}
}

// OnBarFinalized implements barv1.Sink: the bar close becomes the LTP and
// the bar volume accrues to the cumulative total.
func (s *MarketStore) OnBarFinalized(b barv1.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotes[b.InstrumentID]
	if !ok {
		q = &quote{}
		s.quotes[b.InstrumentID] = q
	}
	q.ltp = b.Close
	q.volume += b.Volume
}

// SetPrevClose seeds the previous close used for percent-change math,
// typically once per session from an external instrument master.
func (s *MarketStore) SetPrevClose(instrumentID uint64, prevClose float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotes[instrumentID]
	if !ok {
		q = &quote{}
		s.quotes[instrumentID] = q
	}
	q.prevClose = prevClose
}

// LTP returns the last traded price for an instrument.
func (s *MarketStore) LTP(instrumentID uint64) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[instrumentID]
	if !ok {
		return 0, false
	}
	return q.ltp, true
}

// Volume returns the cumulative finalized-bar volume for an instrument.
func (s *MarketStore) Volume(instrumentID uint64) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[instrumentID]
	if !ok {
		return 0, false
	}
	return q.volume, true
}

// TopGainers returns up to limit instruments sorted by percent change
// descending. Instruments without a previous close are excluded.
func (s *MarketStore) TopGainers(limit int) []InstrumentChange {
	out := s.changes()
	sort.Slice(out, func(i, j int) bool {
		return out[i].PercentChange > out[j].PercentChange
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopLosers returns up to limit instruments sorted by percent change
// ascending.
func (s *MarketStore) TopLosers(limit int) []InstrumentChange {
	out := s.changes()
	sort.Slice(out, func(i, j int) bool {
		return out[i].PercentChange < out[j].PercentChange
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopByVolume returns up to limit instruments sorted by cumulative volume
// descending, including ones without a previous close.
func (s *MarketStore) TopByVolume(limit int) []InstrumentChange {
	s.mu.RLock()
	out := make([]InstrumentChange, 0, len(s.quotes))
	for id, q := range s.quotes {
		pct := 0.0
		if q.prevClose > 0 {
			pct = (q.ltp - q.prevClose) / q.prevClose * 100.0
		}
		out = append(out, InstrumentChange{
			InstrumentID:  id,
			LTP:           q.ltp,
			PrevClose:     q.prevClose,
			PercentChange: pct,
			Volume:        q.volume,
		})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Volume > out[j].Volume
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *MarketStore) changes() []InstrumentChange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]InstrumentChange, 0, len(s.quotes))
	for id, q := range s.quotes {
		if q.prevClose <= 0 {
			continue
		}
		out = append(out, InstrumentChange{
			InstrumentID:  id,
			LTP:           q.ltp,
			PrevClose:     q.prevClose,
			PercentChange: (q.ltp - q.prevClose) / q.prevClose * 100.0,
			Volume:        q.volume,
		})
	}
	return out
}
