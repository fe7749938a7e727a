package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/luozhenyu/pgfulltext/internal/config"
	"github.com/luozhenyu/pgfulltext/internal/schema"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose          bool
	Format           string // "json" | "text"
	ConfigFile       string // settings YAML, optional
	TextSearchConfig string // overrides the settings file and environment

	// LogWriter receives slog output. Nil means os.Stderr.
	LogWriter io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pgfts CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pgfts",
		Short: "pgfts - PostgreSQL full-text search SQL",
		Long: `Generate PostgreSQL full-text search SQL: match predicates, relevance
ranking expressions and full-text index DDL that share one document
expression.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to settings YAML")
	cmd.PersistentFlags().StringVar(&opts.TextSearchConfig, "text-search-config", "", "text search configuration name (overrides --config and $"+config.EnvTextSearchConfig+")")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewRankCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// Provider returns the configuration chain: the flag, then the settings
// file, then the environment. Every link is read at synthesis time.
func (o *RootOptions) Provider() config.Provider {
	chain := config.Chain{config.NewStatic(o.TextSearchConfig)}
	if o.ConfigFile != "" {
		chain = append(chain, config.File{Path: o.ConfigFile})
	}
	return append(chain, config.Env{})
}

// Settings loads the settings file, or returns defaults when none is set.
func (o *RootOptions) Settings() (*config.Settings, error) {
	if o.ConfigFile == "" {
		return &config.Settings{DefaultAlgorithm: schema.DefaultAlgorithm}, nil
	}
	return config.LoadSettings(o.ConfigFile)
}

// Logger returns a text logger on LogWriter, at debug level with --verbose.
func (o *RootOptions) Logger() *slog.Logger {
	logLevel := slog.LevelInfo
	if o.Verbose {
		logLevel = slog.LevelDebug
	}
	w := o.LogWriter
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
