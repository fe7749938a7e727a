package compiler

import (
	"fmt"
	"strings"

	"github.com/luozhenyu/pgfulltext/internal/schema"
)

// Validation error codes (E100-E199)
const (
	ErrTableNameEmpty     = "E101" // table name is required
	ErrDuplicateColumn    = "E102" // column declared twice
	ErrEmptyIndexColumns  = "E103" // full-text index without columns
	ErrUnknownIndexColumn = "E104" // index column not declared on the table
	ErrDuplicateName      = "E105" // duplicate index or table name
	ErrSelfInheritance    = "E106" // table inherits from itself
	ErrInheritanceCycle   = "E107" // tables inherit from each other
	ErrColumnTypeEmpty    = "E108" // column without a type
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled Blueprints against schema rules.
// Returns all errors found (does not fail-fast).
func Validate(bps []*schema.Blueprint) []ValidationError {
	var errs []ValidationError

	tables := make(map[string]bool)
	indexes := make(map[string]string)

	for i, bp := range bps {
		field := fmt.Sprintf("table[%d]", i)
		if strings.TrimSpace(bp.Table) == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "table name is required",
				Code:    ErrTableNameEmpty,
			})
			continue
		}
		field = "table." + bp.Table

		if tables[bp.Table] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate table name: %q", bp.Table),
				Code:    ErrDuplicateName,
			})
		}
		tables[bp.Table] = true

		errs = append(errs, validateBlueprint(bp, field, indexes)...)
	}

	errs = append(errs, inheritanceErrors(AnalyzeInheritance(bps))...)
	return errs
}

func validateBlueprint(bp *schema.Blueprint, field string, indexes map[string]string) []ValidationError {
	var errs []ValidationError

	columns := make(map[string]bool)
	for _, col := range bp.Columns() {
		if columns[col.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".columns." + col.Name,
				Message: fmt.Sprintf("duplicate column name: %q", col.Name),
				Code:    ErrDuplicateColumn,
			})
		}
		columns[col.Name] = true

		if strings.TrimSpace(col.Type) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".columns." + col.Name,
				Message: "column type is required",
				Code:    ErrColumnTypeEmpty,
			})
		}
	}

	for _, parent := range bp.InheritedTables() {
		if parent == bp.Table {
			errs = append(errs, ValidationError{
				Field:   field + ".inherits",
				Message: fmt.Sprintf("table %q cannot inherit from itself", bp.Table),
				Code:    ErrSelfInheritance,
			})
		}
	}

	// Index columns can only be checked when every column is declared here.
	checkColumns := bp.Creating() && len(bp.InheritedTables()) == 0

	for _, cmd := range bp.Commands() {
		var idx *schema.FulltextIndex
		switch c := cmd.(type) {
		case *schema.FulltextIndex:
			idx = c
		case schema.FulltextIndex:
			idx = &c
		default:
			continue
		}
		idxField := field + ".fulltext." + idx.Index

		if len(idx.Columns) == 0 {
			errs = append(errs, ValidationError{
				Field:   idxField,
				Message: "full-text index requires at least one column",
				Code:    ErrEmptyIndexColumns,
			})
		}

		if owner, seen := indexes[idx.Index]; seen {
			errs = append(errs, ValidationError{
				Field:   idxField,
				Message: fmt.Sprintf("index name %q already used on table %q", idx.Index, owner),
				Code:    ErrDuplicateName,
			})
		} else {
			indexes[idx.Index] = bp.Table
		}

		if !checkColumns {
			continue
		}
		for _, col := range idx.Columns {
			if !columns[col] {
				errs = append(errs, ValidationError{
					Field:   idxField + ".columns",
					Message: fmt.Sprintf("column %q is not declared on table %q", col, bp.Table),
					Code:    ErrUnknownIndexColumn,
				})
			}
		}
	}

	return errs
}

func inheritanceErrors(cycles []InheritanceCycle) []ValidationError {
	var errs []ValidationError
	for _, c := range cycles {
		if len(c.Path) == 2 && c.Path[0] == c.Path[1] {
			continue // reported as ErrSelfInheritance
		}
		errs = append(errs, ValidationError{
			Field:   "table." + c.Path[0] + ".inherits",
			Message: c.Message,
			Code:    ErrInheritanceCycle,
		})
	}
	return errs
}
