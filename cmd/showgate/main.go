// Command showgate manages the marketplace authorization engine.
//
// The CLI supports:
//   - conformance: run the policy suites against the in-memory engine or a live database
//   - doctor: run health checks on the database schema and the policy dependency manifest
//   - migrate: apply the storage schema to PostgreSQL
//   - config: show the effective configuration
//   - version: print version information
//
// Commands that require database access (migrate, doctor, conformance --db)
// need --db or a configured database section.
package main

func main() {
	Execute()
}
