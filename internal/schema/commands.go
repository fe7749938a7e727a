package schema

// Command is a DDL command attached to a Blueprint.
//
// This is a sealed interface - only types in this package implement it.
type Command interface {
	commandNode()
}

// CreateTable creates the Blueprint's table, including its columns and
// parent tables.
type CreateTable struct{}

func (CreateTable) commandNode() {}

// FulltextIndex creates an expression index over the document expression of
// Columns.
//
// Semantics:
//
//	create index "<Index>" on "<table>" using <Algorithm> (to_tsvector('<config>', "<c1>"|| "<c2>"))
//
// An empty Algorithm omits the using clause. Columns must be non-empty.
type FulltextIndex struct {
	Index     string   // Index name
	Columns   []string // Source columns, in concatenation order
	Algorithm string   // Access method ("gin", "gist"); empty = server default
}

func (FulltextIndex) commandNode() {}

// DropFulltextIndex drops a full-text index by name.
//
//	drop index "<Index>"
type DropFulltextIndex struct {
	Index string
}

func (DropFulltextIndex) commandNode() {}
