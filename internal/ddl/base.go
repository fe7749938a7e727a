package ddl

import (
	"fmt"
	"strings"

	"github.com/luozhenyu/pgfulltext/internal/fterr"
	"github.com/luozhenyu/pgfulltext/internal/grammar"
	"github.com/luozhenyu/pgfulltext/internal/schema"
)

// PostgresBase renders plain create table statements:
//
//	create table "documents" ("id" serial primary key not null, "body" text null)
//
// A table without columns renders "()", which PostgreSQL accepts for tables
// that take all their columns from parents.
type PostgresBase struct {
	Grammar *grammar.Grammar
}

// CompileCreate implements BaseCompiler.
func (p *PostgresBase) CompileCreate(bp *schema.Blueprint) (string, error) {
	table, err := p.Grammar.WrapTable(bp.Table)
	if err != nil {
		return "", err
	}

	cols := bp.Columns()
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		def, err := p.column(col)
		if err != nil {
			return "", err
		}
		parts = append(parts, def)
	}

	return fmt.Sprintf("create table %s (%s)", table, strings.Join(parts, ", ")), nil
}

// column renders: "<name>" <type>[ primary key] (null|not null)[ default <expr>]
func (p *PostgresBase) column(col schema.ColumnDefinition) (string, error) {
	if strings.TrimSpace(col.Type) == "" {
		return "", fterr.Precondition("ddl.PostgresBase", "column %q has no type", col.Name)
	}
	name, err := p.Grammar.Wrap(col.Name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" ")
	b.WriteString(col.Type)
	if col.Primary {
		b.WriteString(" primary key")
	}
	if col.Nullable {
		b.WriteString(" null")
	} else {
		b.WriteString(" not null")
	}
	if col.Default != nil {
		b.WriteString(" default ")
		b.WriteString(*col.Default)
	}
	return b.String(), nil
}
