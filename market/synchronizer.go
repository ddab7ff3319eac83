package market

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dnldd/breakout/indicator"
)

// AlignedPoint represents higher timeframe derived values forward filled onto a
// primary timeframe date.
type AlignedPoint struct {
	Date    time.Time
	Derived indicator.DerivedPoint
	Defined bool
}

// Synchronizer aligns higher timeframe derived values onto primary timeframe dates.
type Synchronizer struct {
	points    []indicator.DerivedPoint
	pointsMtx sync.RWMutex
}

// NewSynchronizer initializes a new timeframe synchronizer.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// Update replaces the higher timeframe derived series. The points are expected sorted by date.
func (s *Synchronizer) Update(points []indicator.DerivedPoint) {
	s.pointsMtx.Lock()
	s.points = slices.Clone(points)
	s.pointsMtx.Unlock()
}

// at returns the most recent derived point dated at or before the provided time. It
// must be called with the points lock held.
func (s *Synchronizer) at(t time.Time) (indicator.DerivedPoint, bool) {
	// Index of the first point strictly after t.
	idx := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Date.After(t)
	})
	if idx == 0 {
		return indicator.DerivedPoint{}, false
	}

	return s.points[idx-1], true
}

// At returns the higher timeframe derived values most recently closed at or before
// the provided primary timeframe date.
func (s *Synchronizer) At(t time.Time) (indicator.DerivedPoint, bool) {
	s.pointsMtx.RLock()
	defer s.pointsMtx.RUnlock()

	return s.at(t)
}

// AlignAll forward fills the higher timeframe derived values onto the provided
// primary timeframe dates.
func (s *Synchronizer) AlignAll(dates []time.Time) []AlignedPoint {
	s.pointsMtx.RLock()
	defer s.pointsMtx.RUnlock()

	aligned := make([]AlignedPoint, len(dates))
	for idx := range dates {
		point, ok := s.at(dates[idx])
		aligned[idx] = AlignedPoint{
			Date:    dates[idx],
			Derived: point,
			Defined: ok,
		}
	}

	return aligned
}

// IsHigherClose checks whether a higher timeframe candle is dated exactly at the
// provided primary timeframe date, returning its derived values.
func (s *Synchronizer) IsHigherClose(t time.Time) (indicator.DerivedPoint, bool) {
	s.pointsMtx.RLock()
	defer s.pointsMtx.RUnlock()

	idx, found := slices.BinarySearchFunc(s.points, t, func(p indicator.DerivedPoint, t time.Time) int {
		return p.Date.Compare(t)
	})
	if !found {
		return indicator.DerivedPoint{}, false
	}

	return s.points[idx], true
}

// Len returns the number of higher timeframe points tracked.
func (s *Synchronizer) Len() int {
	s.pointsMtx.RLock()
	defer s.pointsMtx.RUnlock()

	return len(s.points)
}
