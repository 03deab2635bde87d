package hclmodel

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/model"
	"github.com/vk/calcgrid/internal/timeseries"
	"github.com/vk/calcgrid/internal/value"
)

// translateNode converts a decoded node block into the agnostic model.
func translateNode(nb *nodeBlock) (*model.Node, error) {
	node := &model.Node{Name: nb.Name}
	for _, rb := range nb.Rows {
		row := &model.Row{Name: rb.Name, Description: rb.Description}
		prev := 0
		for _, sb := range rb.Steps {
			if sb.Number <= prev {
				return nil, fmt.Errorf("node %q row %q: step numbers must be strictly increasing, got %d after %d",
					nb.Name, rb.Name, sb.Number, prev)
			}
			prev = sb.Number

			step, err := translateStep(sb)
			if err != nil {
				return nil, fmt.Errorf("node %q row %q step %d: %w", nb.Name, rb.Name, sb.Number, err)
			}
			row.Steps = append(row.Steps, step)
		}
		node.Rows = append(node.Rows, row)
	}
	return node, nil
}

func translateStep(sb *stepBlock) (*model.Step, error) {
	convert, err := timeseries.ParseConvertPolicy(sb.Convert)
	if err != nil {
		return nil, err
	}

	step := &model.Step{
		Number:    sb.Number,
		CalcType:  sb.Calc,
		Convert:   convert,
		Variables: map[string]model.Variable{},
	}

	if sb.Variables != nil {
		attrs, diags := sb.Variables.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("variables: %w", diags)
		}
		for name, attr := range attrs {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("variable %q: %w", name, diags)
			}
			val, err := fromCty(v)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
			step.Variables[name] = model.Variable{Value: val}
		}
	}

	for _, ib := range sb.Inputs {
		if ib.Step != "" && ib.Series != "" {
			return nil, fmt.Errorf("input %q: step and series references are mutually exclusive", ib.Name)
		}
		step.Inputs = append(step.Inputs, model.Input{
			Name:      ib.Name,
			StepRef:   ib.Step,
			SeriesRef: ib.Series,
			Mock:      ib.Mock,
		})
	}

	step.Output, err = translateOutput(sb.Output)
	if err != nil {
		return nil, err
	}
	return step, nil
}

func translateOutput(ob *outputBlock) (model.OutputSpec, error) {
	spec := model.OutputSpec{Kind: value.Series}
	if ob == nil {
		return spec, nil
	}
	if ob.Type != "" {
		kind, err := value.ParseKind(ob.Type)
		if err != nil {
			return spec, err
		}
		spec.Kind = kind
	}
	if ob.Min != nil || ob.Max != nil || ob.Format != "" {
		spec.Rule = &value.Rule{Min: ob.Min, Max: ob.Max, Format: ob.Format}
	}
	return spec, nil
}

// fromCty converts a constant HCL expression value into a model value.
func fromCty(v cty.Value) (value.Value, error) {
	switch {
	case v.Type() == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return value.Num(f), nil
	case v.Type() == cty.String:
		// String constants are date literals.
		t, err := value.ParseDate(v.AsString(), "")
		if err != nil {
			return value.Value{}, err
		}
		return value.Dat(t), nil
	case v.Type().IsTupleType() || v.Type().IsListType():
		var arr []float64
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if ev.Type() != cty.Number {
				return value.Value{}, fmt.Errorf("%w: array elements must be numbers", value.ErrTypeMismatch)
			}
			f, _ := ev.AsBigFloat().Float64()
			arr = append(arr, f)
		}
		return value.Arr(arr...), nil
	}
	return value.Value{}, fmt.Errorf("%w: unsupported constant type %s", value.ErrTypeMismatch, v.Type().FriendlyName())
}
