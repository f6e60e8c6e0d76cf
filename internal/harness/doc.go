// Package harness runs policy scenarios against a casbinsql Adapter.
//
// Each scenario runs on a fresh SQLite database and records a trace of every
// flow step, so adapter behavior can be pinned in readable YAML and compared
// against golden snapshots.
//
// # Scenario Format
//
//	name: remove_filtered
//	description: "Removing by field window keeps unrelated rules"
//	setup:
//	  - op: add_policies
//	    ptype: p
//	    rules: [[alice, data1, read], [bob, data2, write]]
//	flow:
//	  - op: remove_filtered_policy
//	    ptype: p
//	    field_index: 1
//	    values: [data2]
//	  - op: load_policy
//	    expect:
//	      loaded: [[p, alice, data1, read]]
//	assertions:
//	  - type: table_rows
//	    rows: [[p, alice, data1, read]]
//
// # Operations
//
// add_policy, add_policies, remove_policy, remove_policies,
// remove_filtered_policy, update_policy, update_policies,
// update_filtered_policies, load_policy, load_filtered_policy and
// save_policy map one-to-one onto Adapter methods. save_policy saves a model
// built from the step's lines.
//
// # Assertion Types
//
//   - table_rows: the table holds exactly these lines, in id order
//   - table_count: the table holds Count rows
//   - filtered: the adapter's filtered flag equals Filtered
//
// Setup steps must succeed. A flow step fails the scenario when its outcome
// differs from its expect clause; a step without one must succeed.
package harness
