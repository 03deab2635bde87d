// Package calc is the catalog of calculation types. A Registry is an
// explicit, constructed object injected into the graph builder and
// evaluator, so independent models and tests can carry independent or
// extended catalogs. Each Definition implements its transformation exactly
// once over Operands, which represent either a single scalar or a sequence
// of period samples; preview (mock) and periodic evaluation therefore share
// one formula and cannot diverge.
package calc
