// Package harness runs YAML conformance scenarios against the full-text
// query builder and the schema compiler.
//
// # Scenario Format
//
//	name: plain_search
//	description: "Plain search binds keywords as the only parameter"
//	config: english
//	table: documents
//	columns: [title, body]
//	flow:
//	  - op: search
//	    keywords: "cat dog"
//	    expect:
//	      sql: "to_tsvector('english', title|| body) @@ plainto_tsquery('english', ?)"
//	      params: ["cat dog"]
//	  - op: fulltext
//	    index: docs_fulltext
//	    expect:
//	      sql: "create index \"docs_fulltext\" on \"documents\" using gin (...)"
//	assertions:
//	  - type: keywords_bound
//	  - type: shared_document
//
// # Operations
//
//   - search, search_tsquery, match: build a predicate (match takes mode)
//   - rank: build a ts_rank expression
//   - create: create the table, with definitions and inherits
//   - fulltext: create a full-text index
//   - drop_fulltext: drop a full-text index by name or by columns
//
// An expect clause may name an error code instead of SQL:
//
//	expect:
//	  error: PRECONDITION_VIOLATION
//
// # Assertion Types
//
//   - trace_contains: some step's SQL contains the given text
//   - trace_count: op appears exactly N times
//   - keywords_bound: no predicate SQL embeds its keywords
//   - shared_document: an index and a predicate use the same document expression
//
// # Deterministic Testing
//
// DDL produced by a scenario is recorded in a fresh in-memory ledger with
// sequential batch IDs, so traces are identical across runs and suitable for
// golden file comparison.
package harness
