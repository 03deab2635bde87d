package timeseries

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicatePeriod is returned when a point would repeat a period already
// present in the series.
var ErrDuplicatePeriod = errors.New("timeseries: duplicate period")

// Point is one observation. Missing marks an explicit gap: the period exists
// in the series but carries no data. Gaps are never coerced to zero.
type Point struct {
	Period  Period
	Value   float64
	Missing bool
}

// Series is an ordered sequence of points with unique, strictly increasing
// periods and a single periodicity. The zero value is an empty series.
type Series struct {
	Freq   Periodicity
	Points []Point
}

// New builds a series from points, sorting them and rejecting duplicate
// periods or mixed periodicities.
func New(freq Periodicity, points ...Point) (Series, error) {
	s := Series{Freq: freq, Points: append([]Point(nil), points...)}
	sort.Slice(s.Points, func(i, j int) bool {
		return s.Points[i].Period.Compare(s.Points[j].Period) < 0
	})
	for i, p := range s.Points {
		if p.Period.Freq != freq {
			return Series{}, fmt.Errorf("%w: point %s in %s series", ErrBadPeriod, p.Period, freq)
		}
		if i > 0 && p.Period.Compare(s.Points[i-1].Period) == 0 {
			return Series{}, fmt.Errorf("%w: %s", ErrDuplicatePeriod, p.Period)
		}
	}
	return s, nil
}

// Len returns the number of points, gaps included.
func (s Series) Len() int { return len(s.Points) }

// At returns the point for the given period, if present.
func (s Series) At(p Period) (Point, bool) {
	i := sort.Search(len(s.Points), func(i int) bool {
		return s.Points[i].Period.Compare(p) >= 0
	})
	if i < len(s.Points) && s.Points[i].Period.Compare(p) == 0 {
		return s.Points[i], true
	}
	return Point{}, false
}

// First and Last return the boundary points of a non-empty series.
func (s Series) First() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[0], true
}

func (s Series) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Slice returns the sub-series falling inside [from, to].
func (s Series) Slice(from, to Period) Series {
	out := Series{Freq: s.Freq}
	for _, p := range s.Points {
		if p.Period.Compare(from) >= 0 && p.Period.Compare(to) <= 0 {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// Equal reports whether two series have identical periodicity, periods,
// gap markers and values.
func (s Series) Equal(other Series) bool {
	if s.Freq != other.Freq || len(s.Points) != len(other.Points) {
		return false
	}
	for i, p := range s.Points {
		q := other.Points[i]
		if p.Period.Compare(q.Period) != 0 || p.Missing != q.Missing {
			return false
		}
		if !p.Missing && p.Value != q.Value {
			return false
		}
	}
	return true
}

// Sum adds every present (non-gap) value.
func (s Series) Sum() float64 {
	var total float64
	for _, p := range s.Points {
		if !p.Missing {
			total += p.Value
		}
	}
	return total
}
