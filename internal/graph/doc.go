// Package graph assembles a model's steps into a validated dependency
// graph: an arena of steps keyed by stable identifiers plus an edge index
// recomputed from the declared input references. Cycle detection and index
// assignment happen at build time; a cyclic model never reaches the
// evaluator. Indices are a pure function of graph shape and are recomputed
// on every build, never stored as authoritative state.
package graph
