package grammar

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/luozhenyu/pgfulltext/internal/fterr"
)

// IdentifierQuoter renders an identifier for embedding in SQL text.
type IdentifierQuoter interface {
	Wrap(value string) (string, error)
}

// LiteralQuoter renders arbitrary text as a SQL string literal.
type LiteralQuoter interface {
	QuoteString(value string) (string, error)
}

// DocumentExpressionSource synthesizes the vectorized document expression.
type DocumentExpressionSource interface {
	ToTsvector(config string, columns []string, q IdentifierQuoter) (string, error)
}

// QueryExpressionSource renders a tsquery function call.
type QueryExpressionSource interface {
	Tsquery(fn, config, operand string) (string, error)
}

// Dialect is everything the search builder renders through.
type Dialect interface {
	IdentifierQuoter
	LiteralQuoter
	DocumentExpressionSource
	QueryExpressionSource
}

var _ Dialect = (*Grammar)(nil)

// ConcatOperator joins column values inside a document expression.
const ConcatOperator = "|| "

// Tsquery functions producing a query expression.
const (
	PlainToTsquery = "plainto_tsquery"
	ToTsquery      = "to_tsquery"
)

// Grammar renders PostgreSQL identifiers, literals and text-search expressions.
// The zero value is ready to use. Grammar is immutable and safe for
// concurrent use.
type Grammar struct {
	// TablePrefix is prepended to table names by WrapTable.
	TablePrefix string
}

// New creates a Grammar with the given table prefix.
func New(tablePrefix string) *Grammar {
	return &Grammar{TablePrefix: tablePrefix}
}

type rawQuoter struct{}

func (rawQuoter) Wrap(value string) (string, error) { return value, nil }

// Raw leaves identifiers untouched. Used where columns may already be SQL
// expression fragments.
var Raw IdentifierQuoter = rawQuoter{}

var aliasPattern = regexp.MustCompile(`(?i)\s+as\s+`)

// Wrap quotes an identifier with double quotes.
//
// Dotted names are quoted per segment, "*" segments stay bare and
// "expr as alias" quotes both sides:
//
//	title           → "title"
//	public.docs     → "public"."docs"
//	docs.*          → "docs".*
//	body as content → "body" as "content"
func (g *Grammar) Wrap(value string) (string, error) {
	if err := checkIdentifier(value); err != nil {
		return "", err
	}

	if loc := aliasPattern.FindStringIndex(value); loc != nil {
		left, err := g.wrapSegments(value[:loc[0]])
		if err != nil {
			return "", err
		}
		alias := value[loc[1]:]
		if err := checkIdentifier(alias); err != nil {
			return "", err
		}
		return left + " as " + wrapValue(alias), nil
	}

	return g.wrapSegments(value)
}

// WrapTable quotes a table name after applying the table prefix.
func (g *Grammar) WrapTable(table string) (string, error) {
	return g.Wrap(g.TablePrefix + table)
}

// Columnize quotes each identifier and joins them with ", ".
func (g *Grammar) Columnize(columns []string) (string, error) {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		wrapped, err := g.Wrap(col)
		if err != nil {
			return "", err
		}
		parts = append(parts, wrapped)
	}
	return strings.Join(parts, ", "), nil
}

// QuoteString renders text as a standard-conforming string literal,
// doubling embedded single quotes. Backslashes are literal characters.
//
// Text containing a NUL byte or invalid UTF-8 cannot be represented in a
// PostgreSQL literal and fails with an EscapingFailure.
func (g *Grammar) QuoteString(value string) (string, error) {
	return QuoteString(value)
}

// QuoteString is the package-level form of Grammar.QuoteString.
func QuoteString(value string) (string, error) {
	if strings.IndexByte(value, 0) >= 0 {
		return "", fterr.Escaping("grammar.QuoteString", "text contains a NUL byte")
	}
	if !utf8.ValidString(value) {
		return "", fterr.Escaping("grammar.QuoteString", "text is not valid UTF-8")
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'", nil
}

// UnquoteString parses a literal produced by QuoteString back to its text.
func UnquoteString(literal string) (string, error) {
	if len(literal) < 2 || literal[0] != '\'' || literal[len(literal)-1] != '\'' {
		return "", fmt.Errorf("not a single-quoted literal: %q", literal)
	}
	body := literal[1 : len(literal)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\'' {
			if i+1 >= len(body) || body[i+1] != '\'' {
				return "", fmt.Errorf("unescaped quote at offset %d in %q", i+1, literal)
			}
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String(), nil
}

// Concatenate renders columns joined by the concatenation operator.
// Each column is passed through q first; a nil q behaves like Raw.
func (g *Grammar) Concatenate(columns []string, q IdentifierQuoter) (string, error) {
	if q == nil {
		q = Raw
	}
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		rendered, err := q.Wrap(col)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}
	return strings.Join(parts, ConcatOperator), nil
}

// ToTsvector renders the document expression over columns.
//
//	to_tsvector('english', "title"|| "body")
func (g *Grammar) ToTsvector(config string, columns []string, q IdentifierQuoter) (string, error) {
	if len(columns) == 0 {
		return "", fterr.Precondition("grammar.ToTsvector", "at least one column is required")
	}
	cfg, err := configLiteral("grammar.ToTsvector", config)
	if err != nil {
		return "", err
	}
	concat, err := g.Concatenate(columns, q)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("to_tsvector(%s, %s)", cfg, concat), nil
}

// Tsquery renders a query expression: fn('<config>', operand).
// operand is emitted verbatim; pass "?" for a bound parameter or the
// output of QuoteString for an embedded literal.
func (g *Grammar) Tsquery(fn, config, operand string) (string, error) {
	switch fn {
	case PlainToTsquery, ToTsquery:
	default:
		return "", fterr.Precondition("grammar.Tsquery", "unsupported query function %q", fn)
	}
	cfg, err := configLiteral("grammar.Tsquery", config)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s, %s)", fn, cfg, operand), nil
}

func configLiteral(op, config string) (string, error) {
	if config == "" {
		return "", fterr.ConfigMissing(op, nil)
	}
	return QuoteString(config)
}

func (g *Grammar) wrapSegments(value string) (string, error) {
	segments := strings.Split(value, ".")
	for i, seg := range segments {
		if seg == "" {
			return "", fterr.Quoting("grammar.Wrap", "empty segment in identifier %q", value)
		}
		segments[i] = wrapValue(seg)
	}
	return strings.Join(segments, "."), nil
}

func wrapValue(value string) string {
	if value == "*" {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func checkIdentifier(value string) error {
	if strings.TrimSpace(value) == "" {
		return fterr.Quoting("grammar.Wrap", "identifier is empty")
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fterr.Quoting("grammar.Wrap", "identifier %q contains a NUL byte", value)
	}
	if !utf8.ValidString(value) {
		return fterr.Quoting("grammar.Wrap", "identifier is not valid UTF-8")
	}
	return nil
}
