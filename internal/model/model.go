// Package model holds the format-agnostic structural description of a
// calculation model: nodes grouping rows, rows chaining steps. Frontends
// (HCL files, an embedding service) translate their own representation into
// these types; the graph builder and evaluator consume nothing else.
package model

import (
	"fmt"

	"github.com/vk/calcgrid/internal/timeseries"
	"github.com/vk/calcgrid/internal/value"
)

// Model is the full set of nodes supplied for one graph build.
type Model struct {
	Nodes []*Node
}

// Node is a named grouping of rows representing one logical metric group.
// Node identity is its name, stable across edits.
type Node struct {
	Name string
	Rows []*Row
}

// Row is an ordered chain of steps producing one model output. Its
// dependency tier is derived from its steps, never authored.
type Row struct {
	Name        string
	Description string
	Steps       []*Step
}

// Step is the atomic computation unit.
type Step struct {
	// Number orders steps within their row, strictly increasing. A step may
	// reference only strictly earlier numbers in its own row.
	Number int
	// CalcType selects the registered calculation implementation.
	CalcType string
	// Variables are local named parameters with optional validation bounds.
	Variables map[string]Variable
	// Inputs are the ordered references this step consumes.
	Inputs []Input
	// Convert is the periodicity conversion policy applied when this step's
	// series inputs disagree on resolution.
	Convert timeseries.ConvertPolicy
	// Output declares the expected result shape and optional rule.
	Output OutputSpec
}

// Variable is one local parameter of a step.
type Variable struct {
	Value value.Value
	Rule  *value.Rule
}

// Input is one declared reference consumed by a step: either the output of
// another step (StepRef) or an external historical series (SeriesRef).
// At most one of the two is set; an input with neither is a constant fed by
// its mock value. Mock optionally overrides the value used for preview
// computation.
type Input struct {
	Name      string
	StepRef   string
	SeriesRef string
	Mock      *float64
}

// OutputSpec declares a step's expected output type and validation rule.
type OutputSpec struct {
	Kind value.Kind
	Rule *value.Rule
}

// StepID builds the stable step identifier used throughout the graph and
// evaluation results.
func StepID(node, row string, number int) string {
	return fmt.Sprintf("%s.%s.%d", node, row, number)
}

// LastStep returns the highest-numbered step of the row, the one whose
// output stands for the row as a whole.
func (r *Row) LastStep() *Step {
	if len(r.Steps) == 0 {
		return nil
	}
	last := r.Steps[0]
	for _, s := range r.Steps[1:] {
		if s.Number > last.Number {
			last = s
		}
	}
	return last
}
