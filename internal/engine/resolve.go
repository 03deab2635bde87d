package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/calcgrid/internal/calc"
	"github.com/vk/calcgrid/internal/history"
	"github.com/vk/calcgrid/internal/model"
	"github.com/vk/calcgrid/internal/timeseries"
	"github.com/vk/calcgrid/internal/value"
)

// resolved carries one input's operands for both evaluation modes.
type resolved struct {
	name     string
	mock     calc.Operand
	periodic calc.Operand
}

// runStep computes both outputs of one step. Everything it reads from
// upstream has already been published; everything it produces is handed
// back for exactly one publish.
func (e *Evaluator) runStep(ctx context.Context, rs *runState, n *runNode) *StepResult {
	step := n.step.Model

	def, err := e.reg.Lookup(step.CalcType)
	if err != nil {
		return failedResult(n.step.ID, err)
	}

	for name, v := range step.Variables {
		if err := value.Validate(v.Value, v.Value.Kind(), v.Rule); err != nil {
			return failedResult(n.step.ID, fmt.Errorf("variable %q: %w", name, err))
		}
	}

	inputs, err := e.resolveInputs(ctx, rs, n)
	if err != nil {
		return failedResult(n.step.ID, err)
	}
	if err := checkRequired(def, inputs); err != nil {
		return failedResult(n.step.ID, err)
	}

	mockArgs, periodicArgs, err := buildArgs(def, step, inputs, rs.window)
	if err != nil {
		return failedResult(n.step.ID, err)
	}

	mockOut, err := def.Apply(mockArgs)
	if err != nil {
		return failedResult(n.step.ID, fmt.Errorf("mock evaluation: %w", err))
	}
	periodicOut, err := def.Apply(periodicArgs)
	if err != nil {
		return failedResult(n.step.ID, fmt.Errorf("periodic evaluation: %w", err))
	}
	if !periodicOut.IsScalar() && periodicOut.Len() == 0 {
		return failedResult(n.step.ID, fmt.Errorf("%w: periodic result carries no samples", calc.ErrMissingInput))
	}

	mock, ok := mockOut.ScalarValue()
	if !ok {
		// A series-shaped mock result collapses to its first present value.
		if mock, err = firstPresentSample(mockOut); err != nil {
			return failedResult(n.step.ID, err)
		}
	}

	series := e.materialize(periodicOut, rs.window)
	if err := validateOutput(step, mock, series); err != nil {
		return failedResult(n.step.ID, err)
	}

	return &StepResult{
		ID:       n.step.ID,
		Mock:     &mock,
		Periodic: &series,
		Status:   StatusOk,
	}
}

// resolveInputs produces mode-specific operands for every declared input.
func (e *Evaluator) resolveInputs(ctx context.Context, rs *runState, n *runNode) ([]resolved, error) {
	step := n.step.Model
	out := make([]resolved, 0, len(step.Inputs))

	for _, in := range step.Inputs {
		var r resolved
		var err error
		switch {
		case in.StepRef != "":
			r, err = e.resolveStepInput(rs, in)
		case in.SeriesRef != "":
			r, err = e.resolveSeriesInput(ctx, rs, in)
		default:
			r, err = resolveConstantInput(in)
		}
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", in.Name, err)
		}
		r.name = in.Name
		out = append(out, r)
	}
	return out, nil
}

// resolveStepInput reads the memoized output of a referenced step, or the
// run's override for it.
func (e *Evaluator) resolveStepInput(rs *runState, in model.Input) (resolved, error) {
	if ov, ok := rs.req.Overrides[in.StepRef]; ok {
		return overrideOperands(in.StepRef, ov)
	}

	res, ok := rs.result(in.StepRef)
	if !ok || res.Status != StatusOk {
		// Scheduling guarantees published dependencies; reaching this means
		// the dependency failed in a way the skip pass did not cover.
		return resolved{}, fmt.Errorf("%w: step %s has no resolved output", calc.ErrMissingInput, in.StepRef)
	}
	return resolved{
		mock:     calc.Scalar(*res.Mock),
		periodic: calc.FromSeries(*res.Periodic),
	}, nil
}

func overrideOperands(id string, ov Override) (resolved, error) {
	var r resolved
	// A zero-point series carries no samples to operate on; rejecting it
	// here keeps the failure local to the consuming step.
	if ov.Periodic != nil && ov.Periodic.Len() == 0 {
		return r, fmt.Errorf("%w: override for step %s carries an empty series", calc.ErrMissingInput, id)
	}
	switch {
	case ov.Mock != nil:
		r.mock = calc.Scalar(*ov.Mock)
	case ov.Periodic != nil:
		v, err := firstPresentSample(calc.FromSeries(*ov.Periodic))
		if err != nil {
			return r, fmt.Errorf("override for step %s: %w", id, err)
		}
		r.mock = calc.Scalar(v)
	default:
		return r, fmt.Errorf("%w: empty override for step %s", calc.ErrMissingInput, id)
	}
	if ov.Periodic != nil {
		r.periodic = calc.FromSeries(*ov.Periodic)
	} else {
		r.periodic = calc.Scalar(*ov.Mock)
	}
	return r, nil
}

// resolveSeriesInput pulls historical points for the periodic mode and the
// declared mock value for preview. When no mock is declared the latest
// fetched point stands in; when neither exists the input is missing.
func (e *Evaluator) resolveSeriesInput(ctx context.Context, rs *runState, in model.Input) (resolved, error) {
	var r resolved

	series, err := e.source.Points(ctx, in.SeriesRef, rs.req.From, rs.req.To)
	havePoints := err == nil
	if err != nil && !errors.Is(err, history.ErrNotFound) {
		return r, err
	}

	switch {
	case havePoints:
		r.periodic = calc.FromSeries(series)
	case in.Mock != nil:
		r.periodic = calc.Scalar(*in.Mock)
	default:
		return r, fmt.Errorf("%w: series %q has no points and no mock value", calc.ErrMissingInput, in.SeriesRef)
	}

	switch {
	case in.Mock != nil:
		r.mock = calc.Scalar(*in.Mock)
	default:
		last, _ := series.Last()
		if last.Missing {
			if v, err := firstPresentSample(calc.FromSeries(series)); err == nil {
				last.Value = v
			}
		}
		r.mock = calc.Scalar(last.Value)
	}
	return r, nil
}

// resolveConstantInput handles inputs carrying only a mock value: the same
// constant feeds both modes.
func resolveConstantInput(in model.Input) (resolved, error) {
	if in.Mock == nil {
		return resolved{}, fmt.Errorf("%w: no reference and no mock value", calc.ErrMissingInput)
	}
	return resolved{mock: calc.Scalar(*in.Mock), periodic: calc.Scalar(*in.Mock)}, nil
}

// checkRequired verifies the declared contract of a non-variadic type.
func checkRequired(def *calc.Definition, inputs []resolved) error {
	if def.Variadic {
		return nil
	}
	byName := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		byName[in.name] = true
	}
	for _, name := range def.Required {
		if !byName[name] {
			return fmt.Errorf("%w: %s requires input %q", calc.ErrMissingInput, def.Name, name)
		}
	}
	return nil
}

// buildArgs assembles mode-specific calc arguments, aligning the periodic
// series operands onto one shared axis first.
func buildArgs(def *calc.Definition, step *model.Step, inputs []resolved, window []timeseries.Period) (calc.Args, calc.Args, error) {
	mock := calc.Args{Named: make(map[string]calc.Operand), Vars: vars(step)}
	periodic := calc.Args{Named: make(map[string]calc.Operand), Vars: vars(step), Window: window}

	// Align every period-carrying operand; scalars broadcast later.
	var seriesIdx []int
	var toAlign []timeseries.Series
	for i, in := range inputs {
		if !in.periodic.IsScalar() {
			seriesIdx = append(seriesIdx, i)
			toAlign = append(toAlign, in.periodic.ToSeries(in.periodic.Periods[0].Freq))
		}
	}
	if len(toAlign) > 1 {
		aligned, err := timeseries.Align(toAlign, def.Align, step.Convert)
		if err != nil {
			return calc.Args{}, calc.Args{}, err
		}
		for j, i := range seriesIdx {
			inputs[i].periodic = calc.FromSeries(aligned[j])
		}
	}

	for _, in := range inputs {
		mock.Named[in.name] = in.mock
		mock.Ordered = append(mock.Ordered, in.mock)
		periodic.Named[in.name] = in.periodic
		periodic.Ordered = append(periodic.Ordered, in.periodic)
	}
	return mock, periodic, nil
}

func vars(step *model.Step) map[string]value.Value {
	out := make(map[string]value.Value, len(step.Variables))
	for name, v := range step.Variables {
		out[name] = v.Value
	}
	return out
}

// materialize turns the periodic-mode result operand into a series,
// broadcasting a scalar result across the requested window.
func (e *Evaluator) materialize(o calc.Operand, window []timeseries.Period) timeseries.Series {
	if !o.IsScalar() {
		return o.ToSeries(o.Periods[0].Freq)
	}
	points := make([]timeseries.Point, len(window))
	for i, p := range window {
		points[i] = timeseries.Point{Period: p, Value: o.Samples[0], Missing: o.Missing[0]}
	}
	freq := timeseries.Yearly
	if len(window) > 0 {
		freq = window[0].Freq
	}
	return timeseries.Series{Freq: freq, Points: points}
}

// validateOutput checks the step's declared output contract: kind and rule
// against the periodic series, bounds against the mock preview.
func validateOutput(step *model.Step, mock float64, series timeseries.Series) error {
	rule := step.Output.Rule
	if step.Output.Kind == value.Series {
		if err := value.Validate(value.Ser(series), value.Series, rule); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}
	if rule != nil {
		if err := value.Validate(value.Num(mock), value.Number, rule); err != nil {
			return fmt.Errorf("mock output: %w", err)
		}
	}
	return nil
}

// firstPresentSample extracts the first non-gap sample of an operand.
func firstPresentSample(o calc.Operand) (float64, error) {
	for i, m := range o.Missing {
		if !m {
			return o.Samples[i], nil
		}
	}
	return 0, fmt.Errorf("%w: result has no present values", calc.ErrMissingInput)
}
