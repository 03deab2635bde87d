package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/calcgrid/internal/model"
)

// chainModel builds a single node "n" whose rows each hold one step that
// depends on the listed step IDs.
func chainModel(rows map[string][]string) *model.Model {
	node := &model.Node{Name: "n"}
	for name, deps := range rows {
		step := &model.Step{Number: 1, CalcType: "empty"}
		for _, dep := range deps {
			step.Inputs = append(step.Inputs, model.Input{Name: dep, StepRef: dep})
		}
		node.Rows = append(node.Rows, &model.Row{Name: name, Steps: []*model.Step{step}})
	}
	return &model.Model{Nodes: []*model.Node{node}}
}

func TestBuildIndices(t *testing.T) {
	// c depends on b depends on a; d depends on a directly.
	m := chainModel(map[string][]string{
		"a": nil,
		"b": {"n.a.1"},
		"c": {"n.b.1"},
		"d": {"n.a.1"},
	})

	g, err := Build(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, 0, g.Steps["n.a.1"].Index)
	assert.Equal(t, 1, g.Steps["n.b.1"].Index)
	assert.Equal(t, 2, g.Steps["n.c.1"].Index)
	assert.Equal(t, 1, g.Steps["n.d.1"].Index)

	t.Run("sorted order is ascending by index", func(t *testing.T) {
		prev := -1
		for _, s := range g.Sorted() {
			assert.GreaterOrEqual(t, s.Index, prev)
			prev = s.Index
		}
	})

	t.Run("every dependency sits at a strictly lower index", func(t *testing.T) {
		for _, s := range g.Steps {
			for _, dep := range s.Deps {
				assert.Less(t, dep.Index, s.Index, "dep %s of %s", dep.ID, s.ID)
			}
		}
	})
}

func TestBuildCycleDetection(t *testing.T) {
	t.Run("two step cycle reports the full path", func(t *testing.T) {
		m := chainModel(map[string][]string{
			"a": {"n.b.1"},
			"b": {"n.a.1"},
		})
		_, err := Build(context.Background(), m)
		require.ErrorIs(t, err, ErrCycle)

		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"n.a.1", "n.b.1", "n.a.1"}, cycleErr.Path)
	})

	t.Run("three step cycle", func(t *testing.T) {
		m := chainModel(map[string][]string{
			"a": {"n.c.1"},
			"b": {"n.a.1"},
			"c": {"n.b.1"},
		})
		_, err := Build(context.Background(), m)
		require.ErrorIs(t, err, ErrCycle)

		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		require.Len(t, cycleErr.Path, 4)
		assert.Equal(t, cycleErr.Path[0], cycleErr.Path[3])
	})

	t.Run("self reference", func(t *testing.T) {
		m := chainModel(map[string][]string{"a": {"n.a.1"}})
		_, err := Build(context.Background(), m)
		assert.ErrorIs(t, err, ErrCycle)
	})
}

func TestBuildReferenceRules(t *testing.T) {
	t.Run("unknown step reference", func(t *testing.T) {
		m := chainModel(map[string][]string{"a": {"n.ghost.1"}})
		_, err := Build(context.Background(), m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown step")
	})

	t.Run("intra-row forward reference is rejected", func(t *testing.T) {
		m := &model.Model{Nodes: []*model.Node{{
			Name: "n",
			Rows: []*model.Row{{
				Name: "r",
				Steps: []*model.Step{
					{Number: 1, CalcType: "empty", Inputs: []model.Input{
						{Name: "later", StepRef: "n.r.2"},
					}},
					{Number: 2, CalcType: "empty"},
				},
			}},
		}}}
		_, err := Build(context.Background(), m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not earlier")
	})

	t.Run("cross-row forward numbers are fine", func(t *testing.T) {
		// The ordering rule binds within a row only.
		m := &model.Model{Nodes: []*model.Node{{
			Name: "n",
			Rows: []*model.Row{
				{Name: "r1", Steps: []*model.Step{{Number: 5, CalcType: "empty"}}},
				{Name: "r2", Steps: []*model.Step{
					{Number: 1, CalcType: "empty", Inputs: []model.Input{
						{Name: "other", StepRef: "n.r1.5"},
					}},
				}},
			},
		}}}
		_, err := Build(context.Background(), m)
		assert.NoError(t, err)
	})

	t.Run("duplicate step id", func(t *testing.T) {
		m := &model.Model{Nodes: []*model.Node{{
			Name: "n",
			Rows: []*model.Row{{
				Name: "r",
				Steps: []*model.Step{
					{Number: 1, CalcType: "empty"},
					{Number: 1, CalcType: "empty"},
				},
			}},
		}}}
		_, err := Build(context.Background(), m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate step")
	})
}

func TestClosure(t *testing.T) {
	m := chainModel(map[string][]string{
		"a": nil,
		"b": {"n.a.1"},
		"c": {"n.b.1"},
		"d": nil,
	})
	g, err := Build(context.Background(), m)
	require.NoError(t, err)

	needed := g.Closure([]string{"n.c.1"})
	assert.True(t, needed["n.a.1"])
	assert.True(t, needed["n.b.1"])
	assert.True(t, needed["n.c.1"])
	assert.False(t, needed["n.d.1"])
}

func TestRowSteps(t *testing.T) {
	m := chainModel(map[string][]string{"a": nil, "b": nil})
	g, err := Build(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, []string{"n.a.1"}, g.RowSteps("n", "a"))
	assert.Equal(t, []string{"n.a.1", "n.b.1"}, g.RowSteps("n", ""))
	assert.Empty(t, g.RowSteps("other", ""))
}
