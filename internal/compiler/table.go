package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/luozhenyu/pgfulltext/internal/schema"
)

// CompileTables compiles every entry under the top-level "table" struct, in
// declaration order.
//
//	table: documents: {
//		columns: {
//			id:    "serial"
//			title: "varchar(255)"
//			body:  {type: "text", nullable: true}
//		}
//		inherits: ["records"]
//		fulltext: docs_fulltext: {columns: ["title", "body"], algorithm: "gin"}
//		drop_fulltext: ["docs_legacy_fulltext"]
//	}
func CompileTables(v cue.Value, prefix string, opts ...Option) ([]*schema.Blueprint, error) {
	o := newOptions(opts)

	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "table",
			Message: "no tables defined",
			Pos:     v.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []*schema.Blueprint
	for iter.Next() {
		bp, err := compileTable(iter.Label(), iter.Value(), prefix, o)
		if err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, nil
}

// CompileTable parses a single table struct into a Blueprint. The table
// name is the last selector of v's path.
//
// Commands are added in a fixed order: create (unless "create: false"),
// then drop_fulltext entries, then fulltext indexes, each in declaration
// order. Dropping first lets a definition replace an index of the same name.
func CompileTable(v cue.Value, prefix string, opts ...Option) (*schema.Blueprint, error) {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return nil, &CompileError{
			Field:   "table",
			Message: "table value has no name",
			Pos:     v.Pos(),
		}
	}
	return compileTable(labels[len(labels)-1].String(), v, prefix, newOptions(opts))
}

// Option configures table compilation.
type Option func(*options)

type options struct {
	algorithm string
}

// DefaultAlgorithm sets the access method for fulltext entries that do not
// name one. The default is schema.DefaultAlgorithm.
func DefaultAlgorithm(name string) Option {
	return func(o *options) {
		o.algorithm = name
	}
}

func newOptions(opts []Option) options {
	o := options{algorithm: schema.DefaultAlgorithm}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func compileTable(name string, v cue.Value, prefix string, o options) (*schema.Blueprint, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	bp := schema.NewBlueprint(name, prefix)

	create := true
	if createVal := v.LookupPath(cue.ParsePath("create")); createVal.Exists() {
		b, err := createVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		create = b
	}
	if create {
		bp.Create()
	}

	if err := parseColumns(bp, v); err != nil {
		return nil, err
	}

	parents, err := parseStringList(v, "inherits")
	if err != nil {
		return nil, err
	}
	bp.Inherits(parents...)

	drops, err := parseStringList(v, "drop_fulltext")
	if err != nil {
		return nil, err
	}
	for _, idx := range drops {
		bp.DropFulltext(idx)
	}

	if err := parseFulltext(bp, v, o.algorithm); err != nil {
		return nil, err
	}

	return bp, nil
}

// parseColumns accepts either a bare type string or a struct with type,
// nullable, default and primary fields.
func parseColumns(bp *schema.Blueprint, v cue.Value) error {
	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil // columns are optional for inherit-only tables
	}

	iter, err := colsVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		colName := iter.Label()
		colVal := iter.Value()

		if typ, err := colVal.String(); err == nil {
			bp.Column(colName, typ)
			continue
		}

		typeVal := colVal.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return &CompileError{
				Field:   fmt.Sprintf("columns.%s", colName),
				Message: "column must be a type string or a struct with a type field",
				Pos:     colVal.Pos(),
			}
		}
		typ, err := typeVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		col := bp.Column(colName, typ)

		if nv := colVal.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
			nullable, err := nv.Bool()
			if err != nil {
				return formatCUEError(err)
			}
			if nullable {
				col.Nullable()
			}
		}
		if pv := colVal.LookupPath(cue.ParsePath("primary")); pv.Exists() {
			primary, err := pv.Bool()
			if err != nil {
				return formatCUEError(err)
			}
			if primary {
				col.Primary()
			}
		}
		if dv := colVal.LookupPath(cue.ParsePath("default")); dv.Exists() {
			expr, err := defaultExpr(dv)
			if err != nil {
				return &CompileError{
					Field:   fmt.Sprintf("columns.%s.default", colName),
					Message: err.Error(),
					Pos:     dv.Pos(),
				}
			}
			col.Default(expr)
		}
	}
	return nil
}

// defaultExpr renders a default value. Strings are raw SQL expressions;
// numbers and bools are rendered as literals.
func defaultExpr(v cue.Value) (string, error) {
	if s, err := v.String(); err == nil {
		return s, nil
	}
	if i, err := v.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	if b, err := v.Bool(); err == nil {
		return strconv.FormatBool(b), nil
	}
	return "", fmt.Errorf("default must be a string, integer or bool")
}

func parseFulltext(bp *schema.Blueprint, v cue.Value, defaultAlgorithm string) error {
	ftVal := v.LookupPath(cue.ParsePath("fulltext"))
	if !ftVal.Exists() {
		return nil
	}

	iter, err := ftVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		idxName := iter.Label()
		idxVal := iter.Value()

		cols, err := parseStringList(idxVal, "columns")
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return &CompileError{
				Field:   fmt.Sprintf("fulltext.%s.columns", idxName),
				Message: "full-text index requires at least one column",
				Pos:     idxVal.Pos(),
			}
		}

		opts := []schema.IndexOption{schema.IndexName(idxName), schema.Algorithm(defaultAlgorithm)}
		if av := idxVal.LookupPath(cue.ParsePath("algorithm")); av.Exists() {
			algorithm, err := av.String()
			if err != nil {
				return formatCUEError(err)
			}
			opts = append(opts, schema.Algorithm(algorithm))
		}
		bp.Fulltext(cols, opts...)
	}
	return nil
}

// parseStringList reads an optional list of strings at field.
func parseStringList(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: "list entries must be strings",
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
