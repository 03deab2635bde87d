// Package hclmodel loads calculation models authored as HCL files and
// translates them into the format-agnostic model the engine consumes. The
// engine itself never sees HCL; an embedding service can hand the builder
// model structs directly instead.
package hclmodel

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes the top-level blocks of one model file.
type fileRoot struct {
	Nodes  []*nodeBlock `hcl:"node,block"`
	Remain hcl.Body     `hcl:",remain"`
}

// nodeBlock is a `node "name" { ... }` block grouping rows.
type nodeBlock struct {
	Name string      `hcl:"name,label"`
	Rows []*rowBlock `hcl:"row,block"`
}

// rowBlock is a `row "name" { ... }` block carrying an ordered step chain.
type rowBlock struct {
	Name        string       `hcl:"name,label"`
	Description string       `hcl:"description,optional"`
	Steps       []*stepBlock `hcl:"step,block"`
}

// stepBlock is one `step { ... }` block.
type stepBlock struct {
	Number int    `hcl:"number"`
	Calc   string `hcl:"calc"`
	// Convert names the periodicity conversion policy: "repeat_last"
	// (default) or "even_split".
	Convert   string          `hcl:"convert,optional"`
	Variables *variablesBlock `hcl:"variables,block"`
	Inputs    []*inputBlock   `hcl:"input,block"`
	Output    *outputBlock    `hcl:"output,block"`
}

// variablesBlock holds arbitrary named attributes evaluated as constants.
type variablesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// inputBlock is one `input "name" { ... }` reference.
type inputBlock struct {
	Name   string   `hcl:"name,label"`
	Step   string   `hcl:"step,optional"`
	Series string   `hcl:"series,optional"`
	Mock   *float64 `hcl:"mock,optional"`
}

// outputBlock declares the expected result shape and bounds.
type outputBlock struct {
	Type   string   `hcl:"type,optional"`
	Min    *float64 `hcl:"min,optional"`
	Max    *float64 `hcl:"max,optional"`
	Format string   `hcl:"format,optional"`
}
