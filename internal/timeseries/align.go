package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAlignment is the base error for irreconcilable series inputs.
var ErrAlignment = errors.New("timeseries: period alignment failed")

// Mode selects which periods survive alignment across inputs.
type Mode int

const (
	// Intersect keeps only periods present in every input. Periods present
	// in just some inputs are dropped.
	Intersect Mode = iota
	// Union keeps every period seen in any input; absent observations are
	// emitted as explicit gaps, never as zeros.
	Union
)

// ConvertPolicy controls how a coarse series is expanded onto finer periods.
// The policy is a declared parameter of the consuming step, never inferred.
type ConvertPolicy int

const (
	// RepeatLast repeats the coarse value across each finer period it covers.
	RepeatLast ConvertPolicy = iota
	// EvenSplit distributes the coarse value evenly across the finer periods.
	EvenSplit
)

// ParseConvertPolicy reads a policy name as written in model definitions.
func ParseConvertPolicy(s string) (ConvertPolicy, error) {
	switch strings.ToLower(s) {
	case "", "repeat_last":
		return RepeatLast, nil
	case "even_split":
		return EvenSplit, nil
	}
	return 0, fmt.Errorf("%w: unknown conversion policy %q", ErrAlignment, s)
}

// Align reconciles the inputs onto one shared period axis at the finest
// common periodicity, expanding coarser series according to policy. The
// returned series all carry identical period sequences, so elementwise
// operations can proceed index by index.
//
// Under Intersect an empty common axis is an alignment error: the consuming
// step would have nothing to compute over.
func Align(inputs []Series, mode Mode, policy ConvertPolicy) ([]Series, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	finest := inputs[0].Freq
	for _, s := range inputs[1:] {
		if s.Freq.Finer(finest) {
			finest = s.Freq
		}
	}

	expanded := make([]Series, len(inputs))
	for i, s := range inputs {
		expanded[i] = expand(s, finest, policy)
	}

	axis := sharedAxis(expanded, mode)
	if len(axis) == 0 {
		return nil, fmt.Errorf("%w: no common periods under intersection", ErrAlignment)
	}

	out := make([]Series, len(expanded))
	for i, s := range expanded {
		aligned := Series{Freq: finest, Points: make([]Point, len(axis))}
		for j, period := range axis {
			if pt, ok := s.At(period); ok {
				aligned.Points[j] = pt
			} else {
				aligned.Points[j] = Point{Period: period, Missing: true}
			}
		}
		out[i] = aligned
	}
	return out, nil
}

// expand maps a series onto the target periodicity. Finer-or-equal series
// pass through unchanged; coarser ones are spread over the periods they
// cover per the policy. Gaps stay gaps after expansion.
func expand(s Series, target Periodicity, policy ConvertPolicy) Series {
	if !target.Finer(s.Freq) {
		return s
	}
	out := Series{Freq: target}
	for _, pt := range s.Points {
		fine := pt.Period.Refine(target)
		for _, fp := range fine {
			np := Point{Period: fp, Value: pt.Value, Missing: pt.Missing}
			if policy == EvenSplit && !pt.Missing {
				np.Value = pt.Value / float64(len(fine))
			}
			out.Points = append(out.Points, np)
		}
	}
	return out
}

// sharedAxis computes the ordered common period sequence across inputs.
func sharedAxis(inputs []Series, mode Mode) []Period {
	counts := make(map[Period]int)
	for _, s := range inputs {
		for _, pt := range s.Points {
			counts[pt.Period]++
		}
	}
	var axis []Period
	for period, n := range counts {
		if mode == Union || n == len(inputs) {
			axis = append(axis, period)
		}
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].Compare(axis[j]) < 0 })
	return axis
}
