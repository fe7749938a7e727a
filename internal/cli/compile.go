package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luozhenyu/pgfulltext/internal/compiler"
	"github.com/luozhenyu/pgfulltext/internal/ddl"
	"github.com/luozhenyu/pgfulltext/internal/grammar"
	"github.com/luozhenyu/pgfulltext/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Record string // ledger database path
}

// TableDDL is the DDL rendered for one table.
type TableDDL struct {
	Table      string   `json:"table"`
	Statements []string `json:"statements"`
}

// CompilationResult holds the rendered DDL, in table declaration order.
type CompilationResult struct {
	Tables []TableDDL   `json:"tables"`
	Batch  *store.Batch `json:"batch,omitempty"`
}

// Statements returns every statement in order.
func (r *CompilationResult) Statements() []string {
	var out []string
	for _, t := range r.Tables {
		out = append(out, t.Statements...)
	}
	return out
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-dir>",
		Short: "Compile CUE table definitions to PostgreSQL DDL",
		Long: `Compile CUE table definitions to PostgreSQL DDL.

Each table renders its create table statement (with inherits), then its
drop_fulltext entries, then its full-text indexes. Index expressions use
the configured text search configuration.

Example:
  pgfts compile ./schema --text-search-config english
  pgfts compile ./schema -o schema.sql --record ddl.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record the statements in this ledger database")

	return cmd
}

func runCompile(opts *CompileOptions, schemaDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := opts.Settings()
	if err != nil {
		return outputCompileError(formatter, ErrCodeSettings, err.Error(), nil)
	}

	loadResult, loadErrors := LoadSchema(schemaDir, settings.TablePrefix, LoadModeCollectAll,
		compiler.DefaultAlgorithm(settings.DefaultAlgorithm))
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, schemaDir)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	c := ddl.NewCompiler(grammar.New(settings.TablePrefix), opts.Provider())
	result := &CompilationResult{}
	for _, bp := range loadResult.Tables {
		formatter.VerboseLog("Compiling table: %s", bp.Table)
		stmts, err := c.ToSQL(bp)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		result.Tables = append(result.Tables, TableDDL{Table: bp.Table, Statements: stmts})
	}

	if opts.Output != "" {
		if err := writeSQLFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if opts.Record != "" {
		batch, err := recordBatch(cmd.Context(), opts.RootOptions, opts.Record, schemaDir, result.Statements())
		if err != nil {
			return outputCompileError(formatter, ErrCodeStore, err.Error(), nil)
		}
		result.Batch = &batch
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// recordBatch appends stmts to the ledger at path.
func recordBatch(ctx context.Context, opts *RootOptions, path, source string, stmts []string) (store.Batch, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(stmts) == 0 {
		return store.Batch{}, fmt.Errorf("nothing to record")
	}

	st, err := store.Open(path, store.WithLogger(opts.Logger()))
	if err != nil {
		return store.Batch{}, fmt.Errorf("opening ledger: %w", err)
	}
	defer st.Close()

	return st.RecordBatch(ctx, source, stmts)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	stmts := result.Statements()
	fmt.Fprintf(formatter.Writer, "-- ✓ Compiled %d table(s), %d statement(s)\n", len(result.Tables), len(stmts))
	for _, stmt := range stmts {
		fmt.Fprintf(formatter.Writer, "%s;\n", stmt)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "-- Wrote DDL to %s\n", outputFile)
	}
	if result.Batch != nil {
		fmt.Fprintf(formatter.Writer, "-- Recorded batch %s (seq %d)\n", result.Batch.ID, result.Batch.Seq)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseLoadError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		if loadErr.Field != "" {
			return loadErr.Code, loadErr.Field + ": " + loadErr.Message
		}
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeSQLFile writes every statement, one per line, terminated by ";".
func writeSQLFile(result *CompilationResult, filename string) error {
	var b strings.Builder
	for _, stmt := range result.Statements() {
		b.WriteString(stmt)
		b.WriteString(";\n")
	}

	if err := os.WriteFile(filename, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
