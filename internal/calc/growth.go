package calc

import (
	"math"

	"github.com/vk/calcgrid/internal/timeseries"
)

// grow generates value_t = base * (1 + rate)^t, t counted in periods since
// the start of the output axis. The axis is the base operand's own periods
// when it has any, otherwise the requested evaluation window; a scalar base
// in mock mode yields the single period-0 value.
func grow(base Operand, rate float64, window []timeseries.Period) (Operand, error) {
	start, err := base.firstPresent()
	if err != nil {
		return Operand{}, err
	}

	axis := base.Periods
	if axis == nil {
		axis = window
	}
	n := len(axis)
	if n == 0 {
		// Mock mode: a one-period series.
		return Scalar(start), nil
	}

	out := Operand{
		Samples: make([]float64, n),
		Missing: make([]bool, n),
		Periods: axis,
	}
	for t := 0; t < n; t++ {
		out.Samples[t] = start * math.Pow(1+rate, float64(t))
	}
	return out, nil
}

func compoundGrowth() *Definition {
	return &Definition{
		Name:     "compound_growth",
		Required: []string{"base"},
		Apply: func(args Args) (Operand, error) {
			rate, err := args.NumberVar("rate")
			if err != nil {
				return Operand{}, err
			}
			return grow(args.Named["base"], rate, args.Window)
		},
	}
}

func inflationAdjustment() *Definition {
	return &Definition{
		Name:     "inflation_adjustment",
		Required: []string{"base"},
		Apply: func(args Args) (Operand, error) {
			rate, err := args.NumberVar("inflation_rate")
			if err != nil {
				return Operand{}, err
			}
			return grow(args.Named["base"], rate, args.Window)
		},
	}
}
