package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/model"
)

// ErrCycle marks a cyclic dependency, fatal to the whole graph build.
var ErrCycle = errors.New("cyclic dependency")

// CycleError reports the exact cycle found during construction.
type CycleError struct {
	// Path lists the step IDs along the cycle, first step repeated at the end.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// Build constructs the validated dependency graph for a model: an arena
// pass creating every step, a linking pass wiring edges from input
// references, cycle detection, and index assignment.
func Build(ctx context.Context, m *model.Model) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	g := &Graph{Steps: make(map[string]*Step)}

	// First pass: create all step vertices.
	for _, node := range m.Nodes {
		for _, row := range node.Rows {
			for _, step := range row.Steps {
				id := model.StepID(node.Name, row.Name, step.Number)
				if _, exists := g.Steps[id]; exists {
					return nil, fmt.Errorf("duplicate step %s", id)
				}
				g.Steps[id] = &Step{
					ID:         id,
					Node:       node.Name,
					Row:        row.Name,
					Model:      step,
					Deps:       make(map[string]*Step),
					Dependents: make(map[string]*Step),
				}
			}
		}
	}
	logger.Debug("graph: step arena created", "step_count", len(g.Steps))

	// Second pass: link edges from declared input references.
	if err := g.linkEdges(); err != nil {
		return nil, err
	}
	logger.Debug("graph: edge linking complete")

	if err := g.detectCycles(); err != nil {
		return nil, err
	}
	logger.Debug("graph: cycle detection passed")

	g.assignIndices()
	logger.Debug("graph: index assignment complete")
	return g, nil
}

// linkEdges wires every step-reference input into a dependency edge,
// enforcing the intra-row ordering rule: within one row a step may only
// reference strictly earlier step numbers.
func (g *Graph) linkEdges() error {
	for _, s := range g.Steps {
		for _, in := range s.Model.Inputs {
			if in.StepRef == "" {
				continue
			}
			dep, ok := g.Steps[in.StepRef]
			if !ok {
				return fmt.Errorf("step %s input %q references unknown step %s", s.ID, in.Name, in.StepRef)
			}
			if dep.ID == s.ID {
				return &CycleError{Path: []string{s.ID, s.ID}}
			}
			if dep.Node == s.Node && dep.Row == s.Row && dep.Model.Number >= s.Model.Number {
				return fmt.Errorf("step %s input %q references step %d of the same row, which is not earlier than %d",
					s.ID, in.Name, dep.Model.Number, s.Model.Number)
			}
			s.Deps[dep.ID] = dep
			dep.Dependents[s.ID] = s
		}
	}
	return nil
}

// detectCycles runs DFS with visiting/visited sets. A step revisited while
// still on the current traversal path signals a cycle; the path stack is
// kept so the full cycle can be reported.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var stack []string

	var visit func(s *Step) error
	visit = func(s *Step) error {
		visiting[s.ID] = true
		stack = append(stack, s.ID)

		for _, dep := range s.Deps {
			if visiting[dep.ID] {
				return &CycleError{Path: cyclePath(stack, dep.ID)}
			}
			if !visited[dep.ID] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(visiting, s.ID)
		visited[s.ID] = true
		return nil
	}

	// Iterate in sorted order so a cycle is always reported from the same
	// entry point.
	for _, s := range g.Sorted() {
		if !visited[s.ID] {
			if err := visit(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// cyclePath trims the DFS stack down to the cycle itself and closes it.
func cyclePath(stack []string, start string) []string {
	for i, id := range stack {
		if id == start {
			path := append([]string(nil), stack[i:]...)
			return append(path, start)
		}
	}
	return append([]string(nil), start)
}

// assignIndices computes each step's dependency tier by walking depth-first
// from every vertex. The graph is already known to be acyclic.
func (g *Graph) assignIndices() {
	memo := make(map[string]int, len(g.Steps))

	var indexOf func(s *Step) int
	indexOf = func(s *Step) int {
		if idx, ok := memo[s.ID]; ok {
			return idx
		}
		idx := 0
		for _, dep := range s.Deps {
			if d := indexOf(dep) + 1; d > idx {
				idx = d
			}
		}
		memo[s.ID] = idx
		return idx
	}

	for _, s := range g.Steps {
		s.Index = indexOf(s)
	}
}
