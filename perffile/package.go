// Package perffile is a reader for the "perf.data" file format produced
// by Linux's perf record.
//
// Parsing a perf.data file starts with a call to New or Open. A
// perf.data file consists of a file header, an attribute table
// describing the events that were recorded, a sequence of records
// retrieved with File.Records, and a set of optional feature sections
// exposed through File.Meta.
//
// This package only decodes the subset of the format needed to drive
// a CPU-state reconstruction from scheduler and IRQ tracepoint
// samples: it does not decode callchains, branch stacks, register
// snapshots, build IDs, or any of the other optional sample or feature
// data perf.data can carry.
package perffile // import "github.com/lx7/perf2statemap/perffile"
