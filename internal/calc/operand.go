package calc

import (
	"fmt"

	"github.com/vk/calcgrid/internal/timeseries"
)

// Operand is the mode-neutral sample sequence a calculation works on: a
// single scalar in mock mode, or one sample per aligned period in periodic
// mode. Missing marks explicit gaps, which propagate through operations.
type Operand struct {
	Samples []float64
	Missing []bool
	// Periods is nil for scalar operands.
	Periods []timeseries.Period
}

// Scalar wraps a single preview value.
func Scalar(v float64) Operand {
	return Operand{Samples: []float64{v}, Missing: []bool{false}}
}

// FromSeries converts an aligned series into an operand.
func FromSeries(s timeseries.Series) Operand {
	o := Operand{
		Samples: make([]float64, s.Len()),
		Missing: make([]bool, s.Len()),
		Periods: make([]timeseries.Period, s.Len()),
	}
	for i, pt := range s.Points {
		o.Samples[i] = pt.Value
		o.Missing[i] = pt.Missing
		o.Periods[i] = pt.Period
	}
	return o
}

// IsScalar reports whether the operand carries no period axis.
func (o Operand) IsScalar() bool { return o.Periods == nil }

// Len returns the sample count.
func (o Operand) Len() int { return len(o.Samples) }

// ScalarValue returns the single sample of a scalar operand.
func (o Operand) ScalarValue() (float64, bool) {
	if !o.IsScalar() || len(o.Samples) != 1 || o.Missing[0] {
		return 0, false
	}
	return o.Samples[0], true
}

// ToSeries converts a period-carrying operand back into a series.
func (o Operand) ToSeries(freq timeseries.Periodicity) timeseries.Series {
	points := make([]timeseries.Point, o.Len())
	for i := range o.Samples {
		points[i] = timeseries.Point{Period: o.Periods[i], Value: o.Samples[i], Missing: o.Missing[i]}
	}
	return timeseries.Series{Freq: freq, Points: points}
}

// combine applies f pairwise over two operands. A scalar side broadcasts
// across the other's period axis; two period-carrying operands must already
// share one axis (the evaluator aligns them first). Gaps on either side
// yield a gap.
func combine(a, b Operand, f func(x, y float64) (float64, error)) (Operand, error) {
	switch {
	case a.IsScalar() && !b.IsScalar():
		a = broadcast(a, b.Periods)
	case !a.IsScalar() && b.IsScalar():
		b = broadcast(b, a.Periods)
	}
	if a.Len() != b.Len() {
		return Operand{}, fmt.Errorf("%w: operand lengths %d and %d",
			timeseries.ErrAlignment, a.Len(), b.Len())
	}

	out := Operand{
		Samples: make([]float64, a.Len()),
		Missing: make([]bool, a.Len()),
		Periods: a.Periods,
	}
	for i := range a.Samples {
		if a.Missing[i] || b.Missing[i] {
			out.Missing[i] = true
			continue
		}
		v, err := f(a.Samples[i], b.Samples[i])
		if err != nil {
			if out.Periods != nil {
				return Operand{}, fmt.Errorf("%w at %s", err, out.Periods[i])
			}
			return Operand{}, err
		}
		out.Samples[i] = v
	}
	return out, nil
}

// broadcast repeats a scalar across a period axis.
func broadcast(o Operand, periods []timeseries.Period) Operand {
	out := Operand{
		Samples: make([]float64, len(periods)),
		Missing: make([]bool, len(periods)),
		Periods: periods,
	}
	for i := range periods {
		out.Samples[i] = o.Samples[0]
		out.Missing[i] = o.Missing[0]
	}
	return out
}

// firstPresent returns the first non-gap sample, the base value for the
// growth-style generators.
func (o Operand) firstPresent() (float64, error) {
	for i, m := range o.Missing {
		if !m {
			return o.Samples[i], nil
		}
	}
	return 0, fmt.Errorf("%w: operand has no present values", ErrMissingInput)
}
