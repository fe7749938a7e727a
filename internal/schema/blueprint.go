package schema

import (
	"strings"
)

// DefaultAlgorithm is the access method used for full-text indexes unless
// an IndexOption overrides it.
const DefaultAlgorithm = "gin"

// ColumnDefinition describes one column of a table being created.
type ColumnDefinition struct {
	Name     string
	Type     string // SQL type, rendered verbatim (e.g. "varchar(255)", "text")
	Nullable bool
	Default  *string // SQL expression, rendered verbatim; nil = no default
	Primary  bool
}

// ColumnBuilder sets modifiers on a column just added to a Blueprint.
type ColumnBuilder struct {
	bp    *Blueprint
	index int
}

func (c ColumnBuilder) def() *ColumnDefinition {
	return &c.bp.columns[c.index]
}

// Nullable allows NULL values in the column.
func (c ColumnBuilder) Nullable() ColumnBuilder {
	c.def().Nullable = true
	return c
}

// Default sets the column default to a raw SQL expression.
func (c ColumnBuilder) Default(expr string) ColumnBuilder {
	c.def().Default = &expr
	return c
}

// Primary marks the column as the primary key.
func (c ColumnBuilder) Primary() ColumnBuilder {
	c.def().Primary = true
	return c
}

// Blueprint describes a table and the DDL commands to run against it.
type Blueprint struct {
	// Table is the unprefixed table name.
	Table string

	// Prefix is prepended to the table name in DDL and default index names.
	Prefix string

	columns  []ColumnDefinition
	inherits []string
	commands []Command
}

// NewBlueprint creates an empty Blueprint for table.
func NewBlueprint(table, prefix string) *Blueprint {
	return &Blueprint{Table: table, Prefix: prefix}
}

// Create adds a CreateTable command.
func (b *Blueprint) Create() *CreateTable {
	cmd := &CreateTable{}
	b.commands = append(b.commands, cmd)
	return cmd
}

// Creating reports whether the Blueprint contains a CreateTable command.
func (b *Blueprint) Creating() bool {
	for _, cmd := range b.commands {
		switch cmd.(type) {
		case *CreateTable, CreateTable:
			return true
		}
	}
	return false
}

// Column adds a NOT NULL column of sqlType.
func (b *Blueprint) Column(name, sqlType string) ColumnBuilder {
	b.columns = append(b.columns, ColumnDefinition{Name: name, Type: sqlType})
	return ColumnBuilder{bp: b, index: len(b.columns) - 1}
}

// Increments adds an auto-incrementing primary key column.
func (b *Blueprint) Increments(name string) ColumnBuilder {
	return b.Column(name, "serial").Primary()
}

// Varchar adds a varchar(255) column.
func (b *Blueprint) Varchar(name string) ColumnBuilder {
	return b.Column(name, "varchar(255)")
}

// Text adds a text column.
func (b *Blueprint) Text(name string) ColumnBuilder {
	return b.Column(name, "text")
}

// Integer adds an integer column.
func (b *Blueprint) Integer(name string) ColumnBuilder {
	return b.Column(name, "integer")
}

// Timestamp adds a timestamp(0) without time zone column.
func (b *Blueprint) Timestamp(name string) ColumnBuilder {
	return b.Column(name, "timestamp(0) without time zone")
}

// Columns returns a copy of the column definitions in declaration order.
func (b *Blueprint) Columns() []ColumnDefinition {
	out := make([]ColumnDefinition, len(b.columns))
	copy(out, b.columns)
	return out
}

// Inherits appends parent tables in declared order.
func (b *Blueprint) Inherits(tables ...string) {
	b.inherits = append(b.inherits, tables...)
}

// InheritedTables returns a copy of the parent tables in declared order.
func (b *Blueprint) InheritedTables() []string {
	out := make([]string, len(b.inherits))
	copy(out, b.inherits)
	return out
}

// IndexOption customizes a full-text index declaration.
type IndexOption func(*FulltextIndex)

// IndexName sets an explicit index name.
func IndexName(name string) IndexOption {
	return func(c *FulltextIndex) {
		c.Index = name
	}
}

// Algorithm sets the index access method. An empty algorithm omits the
// using clause from the compiled statement.
func Algorithm(algorithm string) IndexOption {
	return func(c *FulltextIndex) {
		c.Algorithm = algorithm
	}
}

// Fulltext adds a full-text index command over columns.
func (b *Blueprint) Fulltext(columns []string, opts ...IndexOption) *FulltextIndex {
	cmd := &FulltextIndex{
		Columns:   append([]string(nil), columns...),
		Algorithm: DefaultAlgorithm,
	}
	for _, opt := range opts {
		opt(cmd)
	}
	if cmd.Index == "" {
		cmd.Index = b.IndexName("fulltext", columns)
	}
	b.commands = append(b.commands, cmd)
	return cmd
}

// DropFulltext adds a command dropping the named full-text index.
func (b *Blueprint) DropFulltext(index string) *DropFulltextIndex {
	cmd := &DropFulltextIndex{Index: index}
	b.commands = append(b.commands, cmd)
	return cmd
}

// DropFulltextColumns drops the full-text index that Fulltext would have
// named for columns.
func (b *Blueprint) DropFulltextColumns(columns ...string) *DropFulltextIndex {
	return b.DropFulltext(b.IndexName("fulltext", columns))
}

// IndexName derives the default name for an index of kind over columns.
func (b *Blueprint) IndexName(kind string, columns []string) string {
	parts := make([]string, 0, len(columns)+2)
	parts = append(parts, b.Prefix+b.Table)
	parts = append(parts, columns...)
	parts = append(parts, kind)
	name := strings.ToLower(strings.Join(parts, "_"))
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

// AddCommand appends an already-built command.
func (b *Blueprint) AddCommand(cmd Command) {
	b.commands = append(b.commands, cmd)
}

// Commands returns the commands in declaration order.
func (b *Blueprint) Commands() []Command {
	out := make([]Command, len(b.commands))
	copy(out, b.commands)
	return out
}
