// Package harness runs scripted scenarios against a producer pool.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock and sequential producer ids, so two runs of the same file produce
// byte-identical event traces.
//
// # Scenario Format
//
//	name: priority_order
//	description: "Higher priority producers are drained first"
//	policy: |
//	  order: "priority"
//	steps:
//	  - add: { label: low, priority: 1, values: [1, 2] }
//	  - add: { label: high, priority: 5, kind: range, start: 10, stop: 12 }
//	  - pull: 3
//	  - retire: p-0001
//	  - sweep: true
//	assertions:
//	  - type: values
//	    values: [10, 11, 1]
//	  - type: order
//	    labels: []
//	  - type: count
//	    count: 0
//	  - type: events
//	    kind: evict
//	    count: 1
//
// Every step sets exactly one of add, next, pull, retire or sweep. next and
// pull take a repeat count. Unknown fields are rejected.
//
// # Golden Traces
//
// RunWithGolden compares the canonical JSON of the event trace with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
