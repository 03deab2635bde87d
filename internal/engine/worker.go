package engine

import (
	"context"

	"github.com/vk/calcgrid/internal/ctxlog"
)

// worker is the processing loop of one concurrent worker. Nodes arrive only
// after all their dependencies have published, so every upstream read hits
// the memoized result table.
func (e *Evaluator) worker(ctx context.Context, rs *runState, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for n := range rs.ready {
		stepLogger := logger.With("worker", workerID, "step", n.step.ID)

		if ctx.Err() != nil {
			// Cancellation: queued steps are not started and publish no
			// result. Their downstream closure can never run either.
			e.dropClosure(rs, n)
			continue
		}

		stepLogger.Debug("step picked up")
		res := e.runStep(ctx, rs, n)
		rs.publish(res)

		if res.Status == StatusOk {
			stepLogger.Debug("step succeeded")
			e.unlockDependents(rs, n)
		} else {
			// Local failure: dependents become unresolved, siblings keep
			// running.
			stepLogger.Warn("step failed", "status", res.Status, "error", res.Err.Message)
			e.skipDependents(rs, n)
		}
		rs.wg.Done()
	}
}

// unlockDependents decrements dependency counters and queues any node whose
// last dependency just published.
func (e *Evaluator) unlockDependents(rs *runState, n *runNode) {
	for id := range n.step.Dependents {
		dep, ok := rs.nodes[id]
		if !ok {
			continue // outside this run's closure
		}
		if dep.depCount.Add(-1) == 0 && !dep.skipped.Load() {
			rs.ready <- dep
		}
	}
}

// skipDependents marks the transitive dependent closure of a failed step as
// unresolved. Each node is accounted for exactly once via skipOnce.
func (e *Evaluator) skipDependents(rs *runState, n *runNode) {
	for id := range n.step.Dependents {
		dep, ok := rs.nodes[id]
		if !ok {
			continue
		}
		e.skipClosure(rs, dep, n.step.ID)
	}
}

// skipClosure marks one node unresolved because of causeID, then recurses
// into its dependents.
func (e *Evaluator) skipClosure(rs *runState, n *runNode, causeID string) {
	n.skipOnce.Do(func() {
		n.skipped.Store(true)
		rs.publish(unresolvedResult(n.step.ID, causeID))
		rs.wg.Done()
		for id := range n.step.Dependents {
			if dep, ok := rs.nodes[id]; ok {
				e.skipClosure(rs, dep, n.step.ID)
			}
		}
	})
}

// dropClosure accounts for a node that was never started (cancelled run)
// without publishing any result, then recurses into its dependents.
func (e *Evaluator) dropClosure(rs *runState, n *runNode) {
	n.skipOnce.Do(func() {
		n.skipped.Store(true)
		rs.wg.Done()
		for id := range n.step.Dependents {
			if dep, ok := rs.nodes[id]; ok {
				e.dropClosure(rs, dep)
			}
		}
	})
}
