package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vk/calcgrid/internal/calc"
	"github.com/vk/calcgrid/internal/ctxlog"
	"github.com/vk/calcgrid/internal/graph"
	"github.com/vk/calcgrid/internal/history"
	"github.com/vk/calcgrid/internal/timeseries"
)

// DefaultWorkers is the worker-pool size when the caller does not choose one.
const DefaultWorkers = 8

// Evaluator executes a built graph. It never mutates the graph; every run
// produces a fresh result table.
type Evaluator struct {
	graph   *graph.Graph
	reg     *calc.Registry
	source  history.Source
	workers int
}

// New wires an evaluator. The registry and the historical source are
// injected so independent models and tests run with independent catalogs
// and data.
func New(g *graph.Graph, reg *calc.Registry, source history.Source, workers int) *Evaluator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Evaluator{graph: g, reg: reg, source: source, workers: workers}
}

// runNode is the per-run execution state wrapping one graph step. Atomic
// counters gate scheduling; skipOnce guarantees a node is accounted for
// exactly once when its upstream fails.
type runNode struct {
	step     *graph.Step
	depCount atomic.Int32
	skipped  atomic.Bool
	skipOnce sync.Once
}

// runState is the shared mutable state of one evaluation run. The results
// map is the only cross-worker data: single writer per key, read only after
// the writer published.
type runState struct {
	req     Request
	window  []timeseries.Period
	nodes   map[string]*runNode
	results sync.Map // step ID -> *StepResult
	ready   chan *runNode
	wg      sync.WaitGroup
}

func (rs *runState) publish(res *StepResult) {
	rs.results.Store(res.ID, res)
}

func (rs *runState) result(id string) (*StepResult, bool) {
	v, ok := rs.results.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*StepResult), true
}

// Evaluate runs the request against the graph. Evaluation-time failures
// never abort the run; cancellation stops queued steps but keeps results
// already computed.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	if req.From.Freq != req.To.Freq || req.From.Compare(req.To) > 0 {
		return nil, fmt.Errorf("invalid period range [%s, %s]", req.From, req.To)
	}
	if req.Node == "" && req.Row != "" {
		return nil, fmt.Errorf("row target %q requires a node", req.Row)
	}
	window := timeseries.Range(req.From, req.To)

	// Restrict the run to the target's dependency closure.
	targets := e.targetIDs(req)
	needed := e.graph.Closure(targets)
	logger.Debug("evaluation starting", "steps", len(needed), "workers", e.workers)

	rs := &runState{
		req:    req,
		window: window,
		nodes:  make(map[string]*runNode, len(needed)),
		ready:  make(chan *runNode, len(needed)),
	}
	for id := range needed {
		rs.nodes[id] = &runNode{step: e.graph.Steps[id]}
	}
	for _, n := range rs.nodes {
		n.depCount.Store(int32(len(n.step.Deps)))
	}

	rs.wg.Add(len(rs.nodes))
	for _, n := range rs.nodes {
		if n.depCount.Load() == 0 {
			rs.ready <- n
		}
	}

	workerCtx := ctxlog.WithLogger(ctx, logger)
	var workerWG sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			e.worker(workerCtx, rs, workerID)
		}(i)
	}

	rs.wg.Wait()
	close(rs.ready)
	workerWG.Wait()

	result := &Result{
		RunID:  runID,
		Status: RunOk,
		Steps:  make(map[string]*StepResult, len(rs.nodes)),
	}
	for id := range rs.nodes {
		if res, ok := rs.result(id); ok {
			result.Steps[id] = res
			if res.Status != StatusOk {
				result.Status = RunPartial
			}
		}
	}
	if ctx.Err() != nil {
		result.Status = RunCancelled
	}
	result.Rows = e.aggregateRows(req, result)

	logger.Debug("evaluation finished", "status", result.Status, "steps", len(result.Steps))
	return result, nil
}

// targetIDs resolves the request target to concrete step IDs.
func (e *Evaluator) targetIDs(req Request) []string {
	if req.Node == "" {
		ids := make([]string, 0, len(e.graph.Steps))
		for id := range e.graph.Steps {
			ids = append(ids, id)
		}
		return ids
	}
	return e.graph.RowSteps(req.Node, req.Row)
}

// aggregateRows summarises the final step of each row that was evaluated.
func (e *Evaluator) aggregateRows(req Request, result *Result) []RowAggregate {
	type rowKey struct{ node, row string }
	lastByRow := make(map[rowKey]*graph.Step)
	for id := range result.Steps {
		s := e.graph.Steps[id]
		key := rowKey{s.Node, s.Row}
		if cur, ok := lastByRow[key]; !ok || s.Model.Number > cur.Model.Number {
			lastByRow[key] = s
		}
	}

	var rows []RowAggregate
	for key, s := range lastByRow {
		res := result.Steps[s.ID]
		// A row whose final step did not resolve has no aggregate.
		if res.Status != StatusOk || res.Periodic == nil {
			continue
		}
		// Only the rows the caller asked about.
		if req.Node != "" && key.node != req.Node {
			continue
		}
		if req.Row != "" && key.row != req.Row {
			continue
		}
		rows = append(rows, RowAggregate{
			Node:      key.node,
			Row:       key.row,
			Total:     res.Periodic.Sum(),
			PerPeriod: res.Periodic.Points,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Node != rows[j].Node {
			return rows[i].Node < rows[j].Node
		}
		return rows[i].Row < rows[j].Row
	})
	return rows
}
