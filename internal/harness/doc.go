// Package harness runs sync scenarios against an in-memory catalog.
//
// A scenario seeds the catalog, runs one or more syncs through the real
// engine and checks the writes the engine sent and the catalog it left
// behind.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	state:
//	  categories:
//	    - {id: cat-1, version: 1, key: shoes, name: {en: Shoes}, slug: {en: shoes}}
//	steps:
//	  - sync: category
//	    conflicts: [shoes]
//	    drafts:
//	      - {key: boots, name: {en: Boots}, slug: {en: boots}, parent: {key: shoes}}
//	    expect: {created: 1}
//	assertions:
//	  - type: write_contains
//	    key: boots
//	    operation: create
//	  - type: reference
//	    kind: category
//	    key: boots
//	    field: parent
//	    target: shoes
//
// Step drafts go through the same schema check as draft files. conflicts
// makes the first update of each listed key fail with a version conflict;
// reject makes every write of a listed key fail as invalid.
//
// # Assertion Types
//
//   - write_contains: a write of key with the given operation, outcome and actions
//   - write_order: the first writes of keys appear in order
//   - write_count: key is written exactly N times
//   - final_state: the stored entity matches expected fields, or is absent
//   - reference: a reference field holds the id of another entity
//
// # Deterministic Testing
//
// Every batch runs with a single worker and a testutil.DeterministicClock,
// so writes are recorded in draft order and golden snapshots stay stable.
// Snapshots leave out backend ids, which are random.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/category_tree.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
