// Package harness runs range-expression scenarios against compiled CUE
// graphs.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: bounded_sum
//	description: "Sums of concrete bounds resolve to literals"
//	graph: graphs/arith.cue
//	snapshot_id: snap-arith
//	checks:
//	  - expr: sum
//	    expect: "uint256:14"
//	    outcome: resolved
//	    deps: [k]
//	  - expr: upper
//	    mode: simplify
//	    outcome: symbolic
//	  - expr: upper
//	    rewrite: { y: n }
//	    expect: "uint256:10"
//	  - expr: sum
//	    equal_to: fourteen
//	    equal: true
//	  - expr: scaled
//	    order_to: sum
//	    order: greater
//	assertions:
//	  - type: outcome_count
//	    outcome: resolved
//	    count: 4
//	  - type: recorded_count
//	    count: 5
//	  - type: replay_clean
//
// The graph path is resolved relative to the scenario file.
//
// # Check Fields
//
//   - expect: the reduced element, rendered with variable names
//   - outcome: resolved, symbolic or empty
//   - deps: the distinct variables the (rewritten) expression refers to
//   - equal_to/equal: whether both expressions reduce to equal literals
//   - order_to/order: less, equal, greater or incomparable, comparing the
//     evaluated forms of both expressions
//   - rewrite: retargets variable references before reduction
//
// # Assertion Types
//
//   - outcome_count: number of checks in the trace with the given outcome
//   - recorded_count: number of rows in the evaluation log
//   - replay_clean: the evaluation log replays without output mismatches
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite store, a testutil.DeterministicClock
// and a fixed snapshot id, so two runs of one scenario produce identical
// traces. RunWithGolden compares the trace against testdata/golden.
package harness
