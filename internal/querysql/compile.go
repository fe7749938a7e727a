// Package querysql assembles SELECT statements around raw, parameterized
// WHERE fragments such as full-text predicates.
//
// It is the consumer side of fulltext.Predicate.Apply: a Select collects the
// fragments in order and Compile returns (sql, params) ready for a driver.
package querysql

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is one raw WHERE fragment and the values bound to its "?"
// placeholders, in order.
type Filter struct {
	SQL    string
	Params []any
}

// Select describes a query over a single table.
//
// CRITICAL: Compile never interpolates values. Every placeholder in Filters
// keeps its position, and Limit is bound as a trailing parameter.
type Select struct {
	From    string   // Table expression, rendered verbatim
	Columns []string // Select list, rendered verbatim; empty = "*"
	Filters []Filter
	OrderBy []string // Raw ORDER BY terms, e.g. `ts_rank(...) desc`
	Limit   int      // 0 = no limit
}

// NewSelect creates a Select over from.
func NewSelect(from string) *Select {
	return &Select{From: from}
}

// WhereRaw appends a raw filter. It satisfies fulltext.Filterer.
func (s *Select) WhereRaw(sql string, params ...any) {
	s.Filters = append(s.Filters, Filter{
		SQL:    sql,
		Params: append([]any(nil), params...),
	})
}

// Compile converts the Select to SQL with "?" placeholders.
// Returns (sql, params, error); params appear in filter order.
//
// CRITICAL: values are NEVER interpolated.
func (s *Select) Compile() (string, []any, error) {
	if strings.TrimSpace(s.From) == "" {
		return "", nil, fmt.Errorf("cannot compile select without a table")
	}
	if s.Limit < 0 {
		return "", nil, fmt.Errorf("limit must not be negative, got %d", s.Limit)
	}

	var b strings.Builder
	var params []any

	b.WriteString("select ")
	if len(s.Columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(s.Columns, ", "))
	}
	b.WriteString(" from ")
	b.WriteString(s.From)

	for i, f := range s.Filters {
		if strings.TrimSpace(f.SQL) == "" {
			return "", nil, fmt.Errorf("filter %d is empty", i)
		}
		if got := countPlaceholders(f.SQL); got != len(f.Params) {
			return "", nil, fmt.Errorf("filter %d has %d placeholders but %d params", i, got, len(f.Params))
		}
		if i == 0 {
			b.WriteString(" where ")
		} else {
			b.WriteString(" and ")
		}
		if len(s.Filters) > 1 {
			b.WriteString("(" + f.SQL + ")")
		} else {
			b.WriteString(f.SQL)
		}
		params = append(params, f.Params...)
	}

	if len(s.OrderBy) > 0 {
		b.WriteString(" order by ")
		b.WriteString(strings.Join(s.OrderBy, ", "))
	}

	if s.Limit > 0 {
		b.WriteString(" limit ?")
		params = append(params, s.Limit)
	}

	return b.String(), params, nil
}

// Rebind rewrites "?" placeholders to PostgreSQL's "$1", "$2", ... form.
// Question marks inside single-quoted literals or double-quoted identifiers
// are left alone.
func Rebind(sql string) string {
	var b strings.Builder
	b.Grow(len(sql) + 8)

	n := 0
	scanPlaceholders(sql, func(i int, placeholder bool) {
		if placeholder {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			return
		}
		b.WriteByte(sql[i])
	})
	return b.String()
}

func countPlaceholders(sql string) int {
	n := 0
	scanPlaceholders(sql, func(_ int, placeholder bool) {
		if placeholder {
			n++
		}
	})
	return n
}

// scanPlaceholders calls fn for every byte of sql, flagging the "?" bytes
// that sit outside quoted text. Doubled quotes toggle the state twice and so
// stay inside the literal.
func scanPlaceholders(sql string, fn func(i int, placeholder bool)) {
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			fn(i, true)
			continue
		}
		fn(i, false)
	}
}
