// Package fulltext builds PostgreSQL full-text search fragments: match
// predicates for WHERE clauses and relevance ranking expressions.
//
// CRITICAL: Predicates never interpolate keywords. The keyword string is
// always returned as the single bound parameter. The ranking expression is
// the one place keywords are embedded, and it always escapes them first.
package fulltext

import (
	"fmt"
	"strings"
	"sync"

	"github.com/luozhenyu/pgfulltext/internal/config"
	"github.com/luozhenyu/pgfulltext/internal/fterr"
	"github.com/luozhenyu/pgfulltext/internal/grammar"
)

// MatchMode selects the query expression used by a match predicate.
type MatchMode int

const (
	// ModePlain matches all keyword tokens (plainto_tsquery).
	ModePlain MatchMode = iota
	// ModeStructured passes caller-supplied tsquery syntax (to_tsquery).
	ModeStructured
)

// String returns the mode's flag name.
func (m MatchMode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeStructured:
		return "structured"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode converts "plain" or "structured" to a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "":
		return ModePlain, nil
	case "structured", "tsquery":
		return ModeStructured, nil
	default:
		return 0, fmt.Errorf("invalid match mode %q: must be plain or structured", s)
	}
}

func (m MatchMode) tsqueryFunc() (string, error) {
	switch m {
	case ModePlain:
		return grammar.PlainToTsquery, nil
	case ModeStructured:
		return grammar.ToTsquery, nil
	default:
		return "", fterr.Precondition("fulltext.Match", "unsupported match mode %v", m)
	}
}

// Option configures a Builder.
type Option func(*Builder)

// WithQuotedColumns makes the builder identifier-quote its columns, the
// way index DDL does. By default columns are used verbatim so callers can
// pass expression fragments such as coalesce(body, '').
func WithQuotedColumns() Option {
	return func(b *Builder) {
		b.quoteColumns = true
	}
}

// WithGrammar replaces the dialect used for rendering. A nil dialect
// keeps the default PostgreSQL grammar.
func WithGrammar(g grammar.Dialect) Option {
	return func(b *Builder) {
		if g != nil {
			b.grammar = g
		}
	}
}

// Builder synthesizes search fragments over a set of columns.
//
// Builder is safe for concurrent use; SetColumns may race with builds and
// each build sees either the old or the new column set in full.
type Builder struct {
	mu      sync.RWMutex
	columns []string

	cfg          config.Provider
	grammar      grammar.Dialect
	quoteColumns bool
	quoter       grammar.IdentifierQuoter
}

// New creates a Builder over columns. The configuration provider is read on
// every build, not at construction.
func New(columns []string, cfg config.Provider, opts ...Option) (*Builder, error) {
	b := &Builder{
		cfg:     cfg,
		grammar: grammar.New(""),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.quoter = grammar.Raw
	if b.quoteColumns {
		b.quoter = b.grammar
	}
	if err := b.SetColumns(columns...); err != nil {
		return nil, err
	}
	return b, nil
}

// NewColumn creates a Builder over a single column.
func NewColumn(column string, cfg config.Provider, opts ...Option) (*Builder, error) {
	return New([]string{column}, cfg, opts...)
}

// SetColumns replaces the column set. The previous set is discarded, not
// merged. An empty set or a blank column is a PreconditionViolation and
// leaves the current set untouched.
func (b *Builder) SetColumns(columns ...string) error {
	if len(columns) == 0 {
		return fterr.Precondition("fulltext.SetColumns", "at least one column is required")
	}
	for i, col := range columns {
		if strings.TrimSpace(col) == "" {
			return fterr.Precondition("fulltext.SetColumns", "column %d is blank", i)
		}
	}

	cols := make([]string, len(columns))
	copy(cols, columns)

	b.mu.Lock()
	b.columns = cols
	b.mu.Unlock()
	return nil
}

// Columns returns a copy of the current column set.
func (b *Builder) Columns() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cols := make([]string, len(b.columns))
	copy(cols, b.columns)
	return cols
}

// TextSearchConfig returns the active configuration name.
func (b *Builder) TextSearchConfig() (string, error) {
	return config.Resolve(b.cfg)
}

// Document renders the document expression over the current columns.
func (b *Builder) Document() (string, error) {
	cfg, err := b.TextSearchConfig()
	if err != nil {
		return "", err
	}
	return b.document(cfg)
}

func (b *Builder) document(cfg string) (string, error) {
	return b.grammar.ToTsvector(cfg, b.Columns(), b.quoter)
}

// Match builds a predicate matching keywords in the given mode.
//
//	to_tsvector('english', title|| body) @@ plainto_tsquery('english', ?)
//
// CRITICAL: keywords are NEVER interpolated; they are the single parameter.
func (b *Builder) Match(keywords string, mode MatchMode) (Predicate, error) {
	if keywords == "" {
		return Predicate{}, fterr.Precondition("fulltext.Match", "keywords are required")
	}
	fn, err := mode.tsqueryFunc()
	if err != nil {
		return Predicate{}, err
	}

	cfg, err := b.TextSearchConfig()
	if err != nil {
		return Predicate{}, err
	}
	doc, err := b.document(cfg)
	if err != nil {
		return Predicate{}, err
	}
	query, err := b.grammar.Tsquery(fn, cfg, "?")
	if err != nil {
		return Predicate{}, err
	}

	return Predicate{
		SQL:    fmt.Sprintf("%s @@ %s", doc, query),
		Params: []any{keywords},
	}, nil
}

// Search builds a plain-mode predicate.
func (b *Builder) Search(keywords string) (Predicate, error) {
	return b.Match(keywords, ModePlain)
}

// SearchUsingTsQuery builds a structured-mode predicate; keywords carry the
// caller's own tsquery syntax (&, |, !, <->).
func (b *Builder) SearchUsingTsQuery(keywords string) (Predicate, error) {
	return b.Match(keywords, ModeStructured)
}

// Rank builds a relevance expression for SELECT lists and ORDER BY.
//
//	ts_rank(to_tsvector('english', title|| body), plainto_tsquery('english', 'cat dog'))
//
// Keywords are embedded as an escaped literal. Text that cannot be escaped
// fails with an EscapingFailure rather than producing malformed SQL.
func (b *Builder) Rank(keywords string) (string, error) {
	if keywords == "" {
		return "", fterr.Precondition("fulltext.Rank", "keywords are required")
	}
	literal, err := b.grammar.QuoteString(keywords)
	if err != nil {
		return "", err
	}

	cfg, err := b.TextSearchConfig()
	if err != nil {
		return "", err
	}
	doc, err := b.document(cfg)
	if err != nil {
		return "", err
	}
	query, err := b.grammar.Tsquery(grammar.PlainToTsquery, cfg, literal)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ts_rank(%s, %s)", doc, query), nil
}
