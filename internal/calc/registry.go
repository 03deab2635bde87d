package calc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vk/calcgrid/internal/timeseries"
	"github.com/vk/calcgrid/internal/value"
)

var (
	// ErrDuplicateType: a calculation type name is already registered.
	ErrDuplicateType = errors.New("duplicate calculation type")
	// ErrUnknownType: no registered implementation carries the tag.
	ErrUnknownType = errors.New("unknown calculation type")
	// ErrDivisionByZero: a division step hit a zero denominator.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrMissingInput: a required input or local variable was not supplied.
	ErrMissingInput = errors.New("missing required input")
)

// Args carries the resolved data for one application of a calculation type.
// The evaluator populates it identically for both modes; in mock mode the
// operands are single scalars and Window is nil.
type Args struct {
	// Named maps declared input names to operands for non-variadic types.
	Named map[string]Operand
	// Ordered lists every resolved input in declaration order, used by
	// variadic types.
	Ordered []Operand
	// Vars are the step's local variables.
	Vars map[string]value.Value
	// Window is the requested evaluation period range, used by generator
	// types whose base input carries no period axis of its own.
	Window []timeseries.Period
}

// NumberVar extracts a required numeric local variable.
func (a Args) NumberVar(name string) (float64, error) {
	v, ok := a.Vars[name]
	if !ok {
		return 0, fmt.Errorf("%w: local variable %q", ErrMissingInput, name)
	}
	n, ok := v.AsNumber()
	if !ok {
		return 0, fmt.Errorf("%w: local variable %q must be a number, got %s",
			value.ErrTypeMismatch, name, v.Kind())
	}
	return n, nil
}

// Definition is the contract one calculation type satisfies: its declared
// input names, alignment tolerance, and a single pure transformation.
type Definition struct {
	Name     string
	Required []string
	Optional []string
	// Variadic types consume Args.Ordered instead of named inputs.
	Variadic bool
	// Align selects Intersect or Union when this type's series inputs cover
	// differing period sets. Union marks the gap-tolerant types.
	Align timeseries.Mode
	// Apply is the transformation shared by mock and periodic evaluation.
	Apply func(args Args) (Operand, error)
}

// Registry maps calculation-type tags to their implementations.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry returns an empty catalog.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition, failing if the tag is taken.
func (r *Registry) Register(def *Definition) error {
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// Lookup resolves a tag. An unknown tag fails only the step that asked.
func (r *Registry) Lookup(name string) (*Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return def, nil
}

// Types lists the registered tags in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Builtin returns a registry pre-loaded with the standard calculation types.
func Builtin() *Registry {
	r := NewRegistry()
	for _, def := range []*Definition{
		multiplication(),
		division(),
		addition(),
		subtraction(),
		percentage(),
		compoundGrowth(),
		forecastYoY(),
		inflationAdjustment(),
		empty(),
	} {
		if err := r.Register(def); err != nil {
			panic(err) // built-in names collide only through a coding error
		}
	}
	return r
}
