// Package engine evaluates a built graph in dependency order, computing
// both outputs of every step: the scalar mock preview and the periodic
// time-series. Independent steps run concurrently on a worker pool gated by
// atomic dependency counters; each step publishes its result exactly once
// into a run-scoped table, and failures propagate only along dependency
// edges, leaving sibling branches untouched.
package engine
