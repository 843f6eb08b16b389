// Package erc implements the AMBA AHB electrical rule check.
//
// Validate walks every AHB bus of a design. For each bus, Resolve maps the
// bus nets onto AHB roles (HCLK, HRESETn, HADDR, ... and the HSEL* select
// lines) and seven rules run against that context: presence, width,
// data-bus consistency, decode granularity, select signals, reset shape and
// clock. Clock cardinality and reset configuration are then checked once for
// the whole design, followed by an optional connectivity pass.
//
// Findings are plain sentences split into errors (protocol violations that are
// unambiguous from the data) and warnings (heuristics, best practice, or
// metadata too thin to decide). Merge concatenates results without
// deduplication.
//
// Validation is pure: no I/O, no logging, no mutation of the design.
package erc
