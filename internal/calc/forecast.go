package calc

import (
	"math"

	"github.com/vk/calcgrid/internal/timeseries"
)

// forecastYoY extrapolates a historical series year over year:
// value_{P+k} = value_{P+k-1y} * (1 + growth_rate), reading the year-earlier
// value from history or from already-forecast periods. When the history
// spans less than one full year there is no year-earlier anchor, so it
// falls back to value_P * (1+growth_rate)^k.
func forecastYoY() *Definition {
	return &Definition{
		Name:     "forecast_yoy",
		Required: []string{"history"},
		// Historical fetches may be sparse; gaps pass through explicitly.
		Align: timeseries.Union,
		Apply: func(args Args) (Operand, error) {
			rate, err := args.NumberVar("growth_rate")
			if err != nil {
				return Operand{}, err
			}
			history := args.Named["history"]

			if history.IsScalar() {
				// Mock mode: the preview is the last observed value itself.
				last, err := history.firstPresent()
				if err != nil {
					return Operand{}, err
				}
				return Scalar(last), nil
			}
			return extrapolate(history, rate, args.Window)
		},
	}
}

// extrapolate extends history across the remainder of the window.
func extrapolate(history Operand, rate float64, window []timeseries.Period) (Operand, error) {
	if _, err := history.firstPresent(); err != nil {
		return Operand{}, err
	}

	known := make(map[timeseries.Period]float64, history.Len())
	var first, last timeseries.Period
	haveAny := false
	for i, p := range history.Periods {
		if history.Missing[i] {
			continue
		}
		known[p] = history.Samples[i]
		if !haveAny || p.Compare(first) < 0 {
			first = p
		}
		if !haveAny || p.Compare(last) > 0 {
			last = p
		}
		haveAny = true
	}

	perYear := last.Freq.PerYear()
	fullYear := last.Sub(first)+1 >= perYear
	anchor := known[last]

	out := Operand{}
	appendSample := func(p timeseries.Period, v float64, missing bool) {
		out.Periods = append(out.Periods, p)
		out.Samples = append(out.Samples, v)
		out.Missing = append(out.Missing, missing)
	}

	// Observed portion first, gaps preserved.
	for i, p := range history.Periods {
		appendSample(p, history.Samples[i], history.Missing[i])
	}

	// Forecast portion: from the period after the last observation to the
	// end of the requested window.
	end := last
	if len(window) > 0 {
		end = window[len(window)-1]
	}
	for k, p := 1, last.Next(); p.Compare(end) <= 0; k, p = k+1, p.Next() {
		var v float64
		prior, ok := known[p.Add(-perYear)]
		if fullYear && ok {
			v = prior * (1 + rate)
		} else {
			v = anchor * math.Pow(1+rate, float64(k))
		}
		known[p] = v
		appendSample(p, v, false)
	}
	return out, nil
}
