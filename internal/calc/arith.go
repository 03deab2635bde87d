package calc

import "fmt"

// The elementwise arithmetic types fold their inputs pairwise in declaration
// order: per aligned period for series operands, on raw scalars in mock mode.

func add(x, y float64) (float64, error) { return x + y, nil }
func sub(x, y float64) (float64, error) { return x - y, nil }
func mul(x, y float64) (float64, error) { return x * y, nil }

func div(x, y float64) (float64, error) {
	if y == 0 {
		return 0, ErrDivisionByZero
	}
	return x / y, nil
}

// foldOrdered reduces the ordered inputs left to right with f.
func foldOrdered(args Args, typeName string, f func(x, y float64) (float64, error)) (Operand, error) {
	if len(args.Ordered) < 2 {
		return Operand{}, fmt.Errorf("%w: %s needs at least two inputs, got %d",
			ErrMissingInput, typeName, len(args.Ordered))
	}
	acc := args.Ordered[0]
	var err error
	for _, next := range args.Ordered[1:] {
		if acc, err = combine(acc, next, f); err != nil {
			return Operand{}, err
		}
	}
	return acc, nil
}

func multiplication() *Definition {
	return &Definition{
		Name:     "multiplication",
		Variadic: true,
		Apply: func(args Args) (Operand, error) {
			return foldOrdered(args, "multiplication", mul)
		},
	}
}

func division() *Definition {
	return &Definition{
		Name:     "division",
		Variadic: true,
		Apply: func(args Args) (Operand, error) {
			return foldOrdered(args, "division", div)
		},
	}
}

func addition() *Definition {
	return &Definition{
		Name:     "addition",
		Variadic: true,
		Apply: func(args Args) (Operand, error) {
			return foldOrdered(args, "addition", add)
		},
	}
}

func subtraction() *Definition {
	return &Definition{
		Name:     "subtraction",
		Variadic: true,
		Apply: func(args Args) (Operand, error) {
			return foldOrdered(args, "subtraction", sub)
		},
	}
}

// percentage divides numerator by denominator and leaves the result as a
// fraction, never pre-multiplied by 100.
func percentage() *Definition {
	return &Definition{
		Name:     "percentage",
		Required: []string{"numerator", "denominator"},
		Apply: func(args Args) (Operand, error) {
			return combine(args.Named["numerator"], args.Named["denominator"], div)
		},
	}
}

// empty is the identity placeholder: it passes its single input through
// untouched, gaps and all.
func empty() *Definition {
	return &Definition{
		Name:     "empty",
		Required: []string{"value"},
		Apply: func(args Args) (Operand, error) {
			return args.Named["value"], nil
		},
	}
}
