// Package grammar renders PostgreSQL text-search SQL fragments.
//
// It owns the one routine both sides of the system depend on: document
// expression synthesis. An index created from a schema definition is only
// usable by a search predicate when both render the same expression, so
// every caller goes through ToTsvector:
//
//	to_tsvector('<config>', <col1>|| <col2>|| ...)
//
// Columns are joined with the string concatenation operator in caller order.
// The query path passes columns through Raw (they may already be expression
// fragments); the DDL path passes them through Grammar.Wrap (they are plain
// identifiers).
//
// The text search configuration is always embedded as a single-quoted
// literal, never bound as a parameter: the planner only matches an
// expression index when the configuration is a constant. It is a trusted
// server-side setting, not user input.
//
// # Capabilities
//
// Callers depend on small interfaces rather than on Grammar itself:
//
//   - IdentifierQuoter: Wrap(identifier)
//   - LiteralQuoter: QuoteString(text)
//   - DocumentExpressionSource: ToTsvector(config, columns, quoter)
//   - QueryExpressionSource: Tsquery(fn, config, operand)
//
// Dialect composes the four. Grammar implements it for PostgreSQL.
package grammar
