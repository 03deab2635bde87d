package engine

import (
	"errors"

	"github.com/vk/calcgrid/internal/calc"
	"github.com/vk/calcgrid/internal/graph"
	"github.com/vk/calcgrid/internal/history"
	"github.com/vk/calcgrid/internal/timeseries"
	"github.com/vk/calcgrid/internal/value"
)

// Status is the per-step outcome of one evaluation run.
type Status string

const (
	// StatusOk: both outputs computed.
	StatusOk Status = "ok"
	// StatusUnresolved: an input was missing, here or anywhere upstream.
	StatusUnresolved Status = "unresolved"
	// StatusError: this step's own computation failed.
	StatusError Status = "error"
)

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	RunOk        RunStatus = "ok"
	RunPartial   RunStatus = "partial"
	RunCancelled RunStatus = "cancelled"
)

// Request describes one evaluation run.
type Request struct {
	// Node and Row restrict the run to a target (plus its transitive
	// dependencies). Empty strings evaluate the whole model.
	Node string
	Row  string
	// From and To bound the periodic computation, inclusive.
	From timeseries.Period
	To   timeseries.Period
	// Overrides substitute a referenced step's outputs, keyed by step ID.
	Overrides map[string]Override
}

// Override replaces the outputs of one referenced step for this run only.
type Override struct {
	Mock     *float64
	Periodic *timeseries.Series
}

// StepError is the reportable error attached to a failed step.
type StepError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StepResult is the published outcome of one step: exactly one write per
// step per run.
type StepResult struct {
	ID string `json:"step_id"`
	// Mock is the scalar preview value, absent on failure.
	Mock *float64 `json:"mock_output,omitempty"`
	// Periodic is the time-series output, absent on failure.
	Periodic *timeseries.Series `json:"periodic_output,omitempty"`
	Status   Status             `json:"status"`
	Err      *StepError         `json:"error,omitempty"`
}

// RowAggregate summarises the last step of a row: total and per-period
// figures over the requested range.
type RowAggregate struct {
	Node      string             `json:"node"`
	Row       string             `json:"row"`
	Total     float64            `json:"total"`
	PerPeriod []timeseries.Point `json:"per_period,omitempty"`
}

// Result is the full outcome of one evaluation run.
type Result struct {
	RunID  string                 `json:"run_id"`
	Status RunStatus              `json:"status"`
	Steps  map[string]*StepResult `json:"steps"`
	Rows   []RowAggregate         `json:"rows,omitempty"`
}

// errKind maps an error chain onto the reportable kind vocabulary.
func errKind(err error) string {
	switch {
	case errors.Is(err, graph.ErrCycle):
		return "CyclicDependencyError"
	case errors.Is(err, calc.ErrUnknownType):
		return "UnknownCalculationType"
	case errors.Is(err, calc.ErrDuplicateType):
		return "DuplicateCalculationType"
	case errors.Is(err, calc.ErrMissingInput), errors.Is(err, history.ErrNotFound):
		return "MissingRequiredInput"
	case errors.Is(err, calc.ErrDivisionByZero):
		return "DivisionByZero"
	case errors.Is(err, value.ErrTypeMismatch):
		return "TypeMismatch"
	case errors.Is(err, value.ErrRange):
		return "RangeError"
	case errors.Is(err, value.ErrFormat):
		return "FormatError"
	case errors.Is(err, timeseries.ErrAlignment):
		return "PeriodAlignmentError"
	}
	return "Error"
}

// statusFor classifies a step failure: missing data resolves to
// Unresolved, a computation fault to Error.
func statusFor(err error) Status {
	if errKind(err) == "MissingRequiredInput" {
		return StatusUnresolved
	}
	return StatusError
}

// failedResult builds the published result for a step that did not produce
// outputs.
func failedResult(id string, err error) *StepResult {
	return &StepResult{
		ID:     id,
		Status: statusFor(err),
		Err:    &StepError{Kind: errKind(err), Message: err.Error()},
	}
}

// unresolvedResult builds the propagated result for a step downstream of a
// failure.
func unresolvedResult(id, causeID string) *StepResult {
	return &StepResult{
		ID:     id,
		Status: StatusUnresolved,
		Err: &StepError{
			Kind:    "Unresolved",
			Message: "depends on failed step " + causeID,
		},
	}
}
