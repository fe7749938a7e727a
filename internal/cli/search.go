package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luozhenyu/pgfulltext/internal/fterr"
	"github.com/luozhenyu/pgfulltext/internal/fulltext"
	"github.com/luozhenyu/pgfulltext/internal/grammar"
	"github.com/luozhenyu/pgfulltext/internal/querysql"
)

// SearchOptions holds flags for the search and rank commands.
type SearchOptions struct {
	*RootOptions
	Table        string
	Columns      []string
	Mode         string // "plain" | "structured"
	Rank         bool
	Limit        int
	Dollar       bool // rebind "?" to "$n"
	QuoteColumns bool
}

// QueryResult is a rendered statement or fragment and its bound values.
type QueryResult struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <keywords>",
		Short: "Render a full-text search query",
		Long: `Render a select over a table filtered by a full-text match predicate.

Keywords are always bound as a parameter, never written into the SQL.
With --rank the rows are ordered by ts_rank over the same document.

Example:
  pgfts search "cat dog" --table documents --columns title,body
  pgfts search "cat & !dog" --table documents --columns body --mode structured --dollar`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table to select from (required)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "document columns, in order (required)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "plain", "match mode (plain|structured)")
	cmd.Flags().BoolVar(&opts.Rank, "rank", false, "order by relevance")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "row limit (0 = none)")
	cmd.Flags().BoolVar(&opts.Dollar, "dollar", false, "use $1, $2 placeholders")
	cmd.Flags().BoolVar(&opts.QuoteColumns, "quote-columns", false, "identifier-quote columns")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("columns")

	return cmd
}

// NewRankCommand creates the rank command.
func NewRankCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rank <keywords>",
		Short: "Render a relevance ranking expression",
		Long: `Render a ts_rank expression for select lists and order by clauses.

The keywords are embedded as an escaped string literal.

Example:
  pgfts rank "it's raining" --columns title,body`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "document columns, in order (required)")
	cmd.Flags().BoolVar(&opts.QuoteColumns, "quote-columns", false, "identifier-quote columns")
	_ = cmd.MarkFlagRequired("columns")

	return cmd
}

// builder creates a Builder over the flag columns with the CLI's
// configuration chain.
func (o *SearchOptions) builder(g *grammar.Grammar) (*fulltext.Builder, error) {
	bopts := []fulltext.Option{fulltext.WithGrammar(g)}
	if o.QuoteColumns {
		bopts = append(bopts, fulltext.WithQuotedColumns())
	}
	return fulltext.New(o.Columns, o.Provider(), bopts...)
}

func runSearch(opts *SearchOptions, keywords string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := opts.Settings()
	if err != nil {
		return outputCompileError(formatter, ErrCodeSettings, err.Error(), nil)
	}

	result, err := buildSearch(opts, grammar.New(settings.TablePrefix), keywords)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}
	formatter.VerboseLog("Search over %s (%d column(s), mode %s)", opts.Table, len(opts.Columns), opts.Mode)

	return outputQuery(formatter, result)
}

func buildSearch(opts *SearchOptions, g *grammar.Grammar, keywords string) (QueryResult, error) {
	mode, err := fulltext.ParseMatchMode(opts.Mode)
	if err != nil {
		return QueryResult{}, fterr.Precondition("cli.search", "%v", err)
	}

	b, err := opts.builder(g)
	if err != nil {
		return QueryResult{}, err
	}
	pred, err := b.Match(keywords, mode)
	if err != nil {
		return QueryResult{}, err
	}

	from, err := g.WrapTable(opts.Table)
	if err != nil {
		return QueryResult{}, err
	}
	sel := querysql.NewSelect(from)
	pred.Apply(sel)

	if opts.Rank {
		rank, err := b.Rank(keywords)
		if err != nil {
			return QueryResult{}, err
		}
		sel.Columns = []string{"*", rank + " as rank"}
		sel.OrderBy = []string{"rank desc"}
	}
	sel.Limit = opts.Limit

	sql, params, err := sel.Compile()
	if err != nil {
		return QueryResult{}, err
	}
	if opts.Dollar {
		sql = querysql.Rebind(sql)
	}
	return QueryResult{SQL: sql, Params: params}, nil
}

func runRank(opts *SearchOptions, keywords string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	b, err := opts.builder(grammar.New(""))
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}
	rank, err := b.Rank(keywords)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	return outputQuery(formatter, QueryResult{SQL: rank, Params: []any{}})
}

// outputQuery prints the SQL, then its parameters as a comment.
func outputQuery(formatter *OutputFormatter, result QueryResult) error {
	if result.Params == nil {
		result.Params = []any{}
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.SQL)
	for i, p := range result.Params {
		fmt.Fprintf(formatter.Writer, "-- $%d = %#v\n", i+1, p)
	}
	return nil
}
