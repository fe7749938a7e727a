// Package ddl compiles schema Blueprints into PostgreSQL DDL statements.
//
// Full-text indexes are rendered through the same document expression
// routine the search builder uses (grammar.ToTsvector), with each column
// identifier-quoted, so an index created here is usable by predicates built
// by the fulltext package over the same columns and configuration.
//
// The compiler renders text only. Executing statements is the caller's job.
package ddl

import (
	"fmt"
	"regexp"

	"github.com/luozhenyu/pgfulltext/internal/config"
	"github.com/luozhenyu/pgfulltext/internal/fterr"
	"github.com/luozhenyu/pgfulltext/internal/grammar"
	"github.com/luozhenyu/pgfulltext/internal/schema"
)

// BaseCompiler emits the plain create table statement that inheritance is
// appended to.
type BaseCompiler interface {
	CompileCreate(bp *schema.Blueprint) (string, error)
}

// Compiler turns Blueprint commands into DDL text.
//
// Compiler holds no mutable state and is safe for concurrent use.
type Compiler struct {
	Grammar *grammar.Grammar
	Config  config.Provider
	Base    BaseCompiler

	// Document renders index expressions; nil uses Grammar.
	Document grammar.DocumentExpressionSource
}

// NewCompiler creates a Compiler whose base create statements come from
// PostgresBase over the same grammar.
func NewCompiler(g *grammar.Grammar, cfg config.Provider) *Compiler {
	if g == nil {
		g = grammar.New("")
	}
	return &Compiler{
		Grammar:  g,
		Config:   cfg,
		Base:     &PostgresBase{Grammar: g},
		Document: g,
	}
}

func (c *Compiler) document() grammar.DocumentExpressionSource {
	if c.Document == nil {
		return c.Grammar
	}
	return c.Document
}

// Blueprint creates a Blueprint carrying the compiler's table prefix, so
// default index names and rendered table names agree.
func (c *Compiler) Blueprint(table string) *schema.Blueprint {
	return schema.NewBlueprint(table, c.Grammar.TablePrefix)
}

// CompileCreate renders the create table statement, appending
//
//	inherits ("<parent1>", "<parent2>")
//
// when the Blueprint declares parent tables. Parents are quoted like columns
// and listed in declared order. No clause is emitted without parents.
func (c *Compiler) CompileCreate(bp *schema.Blueprint) (string, error) {
	base, err := c.Base.CompileCreate(bp)
	if err != nil {
		return "", fmt.Errorf("compile create %q: %w", bp.Table, err)
	}

	parents := bp.InheritedTables()
	if len(parents) == 0 {
		return base, nil
	}
	list, err := c.Grammar.Columnize(parents)
	if err != nil {
		return "", fmt.Errorf("compile inherits for %q: %w", bp.Table, err)
	}
	return fmt.Sprintf("%s inherits (%s)", base, list), nil
}

var algorithmPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CompileFulltext renders a full-text index:
//
//	create index "<name>" on "<table>" using gin (to_tsvector('<config>', "<col1>"|| "<col2>"))
//
// The using clause is omitted when the command has no algorithm. An index
// command without columns or without a name is rejected before any SQL is
// rendered.
func (c *Compiler) CompileFulltext(bp *schema.Blueprint, cmd *schema.FulltextIndex) (string, error) {
	if cmd == nil || len(cmd.Columns) == 0 {
		return "", fterr.Precondition("ddl.CompileFulltext", "full-text index on %q has no columns", bp.Table)
	}
	if cmd.Index == "" {
		return "", fterr.Precondition("ddl.CompileFulltext", "full-text index on %q has no name", bp.Table)
	}
	if cmd.Algorithm != "" && !algorithmPattern.MatchString(cmd.Algorithm) {
		return "", fterr.Precondition("ddl.CompileFulltext", "invalid index algorithm %q", cmd.Algorithm)
	}

	cfg, err := config.Resolve(c.Config)
	if err != nil {
		return "", err
	}

	index, err := c.Grammar.Wrap(cmd.Index)
	if err != nil {
		return "", err
	}
	table, err := c.Grammar.WrapTable(bp.Table)
	if err != nil {
		return "", err
	}
	doc, err := c.document().ToTsvector(cfg, cmd.Columns, c.Grammar)
	if err != nil {
		return "", err
	}

	using := ""
	if cmd.Algorithm != "" {
		using = " using " + cmd.Algorithm
	}

	return fmt.Sprintf("create index %s on %s%s (%s)", index, table, using, doc), nil
}

// CompileDropFulltext renders:
//
//	drop index "<name>"
func (c *Compiler) CompileDropFulltext(cmd *schema.DropFulltextIndex) (string, error) {
	if cmd == nil || cmd.Index == "" {
		return "", fterr.Precondition("ddl.CompileDropFulltext", "index name is required")
	}
	index, err := c.Grammar.Wrap(cmd.Index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("drop index %s", index), nil
}

// Compile renders a single command of bp.
func (c *Compiler) Compile(bp *schema.Blueprint, cmd schema.Command) (string, error) {
	switch command := cmd.(type) {
	case schema.CreateTable, *schema.CreateTable:
		return c.CompileCreate(bp)
	case schema.FulltextIndex:
		return c.CompileFulltext(bp, &command)
	case *schema.FulltextIndex:
		return c.CompileFulltext(bp, command)
	case schema.DropFulltextIndex:
		return c.CompileDropFulltext(&command)
	case *schema.DropFulltextIndex:
		return c.CompileDropFulltext(command)
	default:
		return "", fmt.Errorf("unsupported command type: %T", cmd)
	}
}

// ToSQL renders every command of bp in declaration order. The first failing
// command fails the whole call.
func (c *Compiler) ToSQL(bp *schema.Blueprint) ([]string, error) {
	cmds := bp.Commands()
	statements := make([]string, 0, len(cmds))
	for i, cmd := range cmds {
		stmt, err := c.Compile(bp, cmd)
		if err != nil {
			return nil, fmt.Errorf("table %q command %d: %w", bp.Table, i, err)
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}
