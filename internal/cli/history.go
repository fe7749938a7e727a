package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luozhenyu/pgfulltext/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database  string
	Batch     string // list this batch's statements
	Statement string // list every occurrence of this statement ID
}

// HistoryResult is the JSON payload of the history command.
type HistoryResult struct {
	Batches    []store.Batch     `json:"batches,omitempty"`
	Statements []store.Statement `json:"statements,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show DDL recorded with compile --record",
		Long: `Show the DDL ledger written by "pgfts compile --record".

Without filters, lists every batch in recording order. With --batch,
lists that batch's statements. With --statement, lists every batch
position where a statement with that content ID was emitted.

Example:
  pgfts history --db ddl.db
  pgfts history --db ddl.db --batch 0192f3a4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to ledger database (required)")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "show statements of one batch")
	cmd.Flags().StringVar(&opts.Statement, "statement", "", "show occurrences of one statement ID")
	cmd.MarkFlagsMutuallyExclusive("batch", "statement")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Opening would create an empty ledger; a missing file is a usage error.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return outputCompileError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database, store.WithLogger(opts.Logger()))
	if err != nil {
		return outputCompileError(formatter, ErrCodeStore, fmt.Sprintf("opening ledger: %v", err), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := queryHistory(ctx, st, opts)
	if errors.Is(err, store.ErrBatchNotFound) {
		return outputCompileError(formatter, ErrCodeNotFound, err.Error(), nil)
	}
	if err != nil {
		return outputCompileError(formatter, ErrCodeStore, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputHistoryText(formatter, result)
}

func queryHistory(ctx context.Context, st *store.Store, opts *HistoryOptions) (HistoryResult, error) {
	switch {
	case opts.Batch != "":
		stmts, err := st.Statements(ctx, opts.Batch)
		return HistoryResult{Statements: stmts}, err
	case opts.Statement != "":
		stmts, err := st.StatementHistory(ctx, opts.Statement)
		return HistoryResult{Statements: stmts}, err
	default:
		batches, err := st.Batches(ctx)
		return HistoryResult{Batches: batches}, err
	}
}

func outputHistoryText(formatter *OutputFormatter, result HistoryResult) error {
	w := formatter.Writer
	for _, b := range result.Batches {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d statement(s)\n", b.Seq, b.ID, b.Source, b.StatementCount)
	}
	for _, s := range result.Statements {
		fmt.Fprintf(w, "%s #%d [%s] %s\n", s.BatchID, s.Position, s.Kind, s.SQL)
		formatter.VerboseLog("  id %s", s.ID)
	}
	if len(result.Batches) == 0 && len(result.Statements) == 0 {
		fmt.Fprintln(w, "No history.")
	}
	return nil
}
