package graph

import (
	"sort"

	"github.com/vk/calcgrid/internal/model"
)

// Step is one vertex of the built graph: the model step plus its derived
// position in the dependency order.
type Step struct {
	// ID is the stable identifier "node.row.number".
	ID string
	// Node and Row name the owning groups.
	Node string
	Row  string
	// Model is the structural definition this vertex was built from.
	Model *model.Step
	// Index is the dependency tier: 0 for steps with no step-dependencies,
	// otherwise 1 + the maximum index among its inputs.
	Index int
	// Deps and Dependents are the direct dependency edges, keyed by step ID.
	Deps       map[string]*Step
	Dependents map[string]*Step
}

// Graph is the validated arena of steps. It is immutable after Build.
type Graph struct {
	Steps map[string]*Step
}

// Sorted returns every step in ascending (index, node, row, step number)
// order, the order the evaluator schedules them in.
func (g *Graph) Sorted() []*Step {
	out := make([]*Step, 0, len(g.Steps))
	for _, s := range g.Steps {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Model.Number < b.Model.Number
	})
	return out
}

// Closure returns the given steps plus everything they transitively depend
// on. Used to restrict an evaluation run to a target node or row.
func (g *Graph) Closure(ids []string) map[string]bool {
	needed := make(map[string]bool)
	var visit func(s *Step)
	visit = func(s *Step) {
		if needed[s.ID] {
			return
		}
		needed[s.ID] = true
		for _, dep := range s.Deps {
			visit(dep)
		}
	}
	for _, id := range ids {
		if s, ok := g.Steps[id]; ok {
			visit(s)
		}
	}
	return needed
}

// RowSteps returns the IDs of every step belonging to the named row.
func (g *Graph) RowSteps(node, row string) []string {
	var out []string
	for id, s := range g.Steps {
		if s.Node == node && (row == "" || s.Row == row) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
