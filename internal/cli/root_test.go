package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luozhenyu/pgfulltext/internal/config"
	"github.com/luozhenyu/pgfulltext/internal/schema"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pgfts", cmd.Use)
	assert.Contains(t, cmd.Long, "full-text search")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "search", "rank", "test", "history"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("text-search-config"))
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flags   []string
	}{
		{"compile", []string{"output", "record"}},
		{"search", []string{"table", "columns", "mode", "rank", "limit", "dollar", "quote-columns"}},
		{"rank", []string{"columns", "quote-columns"}},
		{"test", []string{"update", "filter"}},
		{"history", []string{"db", "batch", "statement"}},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)
			for _, name := range tt.flags {
				assert.NotNil(t, sub.Flags().Lookup(name), "flag --%s", name)
			}
		})
	}

	compileCmd, _, err := root.Find([]string{"compile"})
	require.NoError(t, err)
	assert.Equal(t, "o", compileCmd.Flags().Lookup("output").Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	_, err := runCLI(t, "rank", "cat", "--columns", "body", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestProviderChainOrder(t *testing.T) {
	dir := writeFiles(t, map[string]string{"settings.yaml": "text_search_config: simple\n"})
	t.Setenv(config.EnvTextSearchConfig, "french")

	opts := &RootOptions{}
	name, err := config.Resolve(opts.Provider())
	require.NoError(t, err)
	assert.Equal(t, "french", name)

	opts.ConfigFile = dir + "/settings.yaml"
	name, err = config.Resolve(opts.Provider())
	require.NoError(t, err)
	assert.Equal(t, "simple", name)

	opts.TextSearchConfig = "german"
	name, err = config.Resolve(opts.Provider())
	require.NoError(t, err)
	assert.Equal(t, "german", name)
}

func TestSettingsDefaults(t *testing.T) {
	s, err := (&RootOptions{}).Settings()
	require.NoError(t, err)
	assert.Equal(t, "", s.TablePrefix)
	assert.Equal(t, schema.DefaultAlgorithm, s.DefaultAlgorithm)
}

func TestLoggerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	opts := &RootOptions{LogWriter: buf}

	opts.Logger().Debug("hidden")
	assert.Empty(t, buf.String())

	opts.Verbose = true
	opts.Logger().Debug("shown", slog.String("table", "documents"))
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "table=documents")
}
