// Package harness runs conformance scenarios against a fresh SQLite
// database.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: path/to/tables.cue       # relative to the scenario file
//	table: counter
//	engine: mattn                    # optional: mattn, modernc, zombiezen
//	steps:
//	  - op: create
//	  - op: insert
//	    values: { name: milk, stock: 20 }
//	  - op: query
//	    where: { or: [ { is_null: stock }, { eq: { field: stock, value: 20 } } ] }
//	    expect:
//	      rows:
//	        - { name: milk }
//	  - op: update
//	    where: { eq: { field: id, value: 1 } }
//	    values: { id: 1, name: oat milk, stock: 0 }
//	  - op: delete
//	    where: { lte: { field: stock, value: 0 } }
//	assertions:
//	  - type: statement_count
//	    op: insert
//	    count: 1
//	  - type: final_state
//	    count: 0
//
// Values are given per field name; absent fields are stored as NULL.
// Expected rows are matched in order on the listed fields only.
//
// # Trace
//
// Every step contributes one trace event holding the SQL statements it
// issued, the rows a query returned, and the error code of a failed step.
// Traces are compared against golden files in testdata/golden.
package harness
