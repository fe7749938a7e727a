package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/luozhenyu/pgfulltext/internal/config"
	"github.com/luozhenyu/pgfulltext/internal/ddl"
	"github.com/luozhenyu/pgfulltext/internal/fterr"
	"github.com/luozhenyu/pgfulltext/internal/fulltext"
	"github.com/luozhenyu/pgfulltext/internal/grammar"
	"github.com/luozhenyu/pgfulltext/internal/schema"
	"github.com/luozhenyu/pgfulltext/internal/store"
	"github.com/luozhenyu/pgfulltext/internal/testutil"
)

// Harness executes one scenario.
type Harness struct {
	scenario  *Scenario
	cfg       config.Provider
	grammar   *grammar.Grammar
	compiler  *ddl.Compiler
	blueprint *schema.Blueprint
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Build the configuration, grammar and compiler for the scenario
// 2. Execute flow steps, validating each expect clause
// 3. Record emitted DDL in a fresh in-memory ledger
// 4. Evaluate assertions against the trace
func Run(scenario *Scenario) (*Result, error) {
	g := grammar.New(scenario.Prefix)
	cfg := config.NewStatic(scenario.Config)
	compiler := ddl.NewCompiler(g, cfg)

	h := &Harness{
		scenario:  scenario,
		cfg:       cfg,
		grammar:   g,
		compiler:  compiler,
		blueprint: compiler.Blueprint(scenario.Table),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	var statements []string

	for i, step := range scenario.Flow {
		event := h.executeStep(i, step)
		result.Trace = append(result.Trace, event)

		if isDDL(step.Op) && event.Error == "" {
			statements = append(statements, event.SQL)
		}

		for _, msg := range checkExpect(i, step, event) {
			result.AddError(msg)
		}

		h.logger.Info("flow step executed",
			"step", i,
			"op", step.Op,
			"error", event.Error)
	}

	if len(statements) > 0 {
		ledger, err := h.record(statements)
		if err != nil {
			return nil, fmt.Errorf("failed to record ddl: %w", err)
		}
		result.Ledger = ledger
	}

	for _, msg := range EvaluateAssertions(result.Trace, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func isDDL(op string) bool {
	return op == OpCreate || op == OpFulltext || op == OpDropFulltext
}

func (h *Harness) columns(step FlowStep) []string {
	if len(step.Columns) > 0 {
		return step.Columns
	}
	return h.scenario.Columns
}

// executeStep runs one step. Failures become the event's error code rather
// than aborting the scenario.
func (h *Harness) executeStep(i int, step FlowStep) TraceEvent {
	event := TraceEvent{Step: i, Op: step.Op, Keywords: step.Keywords}

	var (
		sql    string
		params []any
		err    error
	)
	switch step.Op {
	case OpSearch, OpSearchTsQuery, OpMatch:
		var pred fulltext.Predicate
		pred, err = h.predicate(step)
		sql, params = pred.SQL, pred.Params
	case OpRank:
		var b *fulltext.Builder
		if b, err = h.builder(step); err == nil {
			sql, err = b.Rank(step.Keywords)
		}
	case OpCreate:
		for _, def := range step.Definitions {
			col := h.blueprint.Column(def.Name, def.Type)
			if def.Nullable {
				col.Nullable()
			}
			if def.Default != nil {
				col.Default(*def.Default)
			}
		}
		h.blueprint.Inherits(step.Inherits...)
		sql, err = h.compiler.Compile(h.blueprint, h.blueprint.Create())
	case OpFulltext:
		var opts []schema.IndexOption
		if step.Index != "" {
			opts = append(opts, schema.IndexName(step.Index))
		}
		if step.Algorithm != nil {
			opts = append(opts, schema.Algorithm(*step.Algorithm))
		}
		sql, err = h.compiler.Compile(h.blueprint, h.blueprint.Fulltext(h.columns(step), opts...))
	case OpDropFulltext:
		var cmd *schema.DropFulltextIndex
		if step.Index != "" {
			cmd = h.blueprint.DropFulltext(step.Index)
		} else {
			cmd = h.blueprint.DropFulltextColumns(h.columns(step)...)
		}
		sql, err = h.compiler.Compile(h.blueprint, cmd)
	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		event.Error = errorCode(err)
		return event
	}
	event.SQL = sql
	event.Params = params
	return event
}

func (h *Harness) builder(step FlowStep) (*fulltext.Builder, error) {
	opts := []fulltext.Option{fulltext.WithGrammar(h.grammar)}
	if h.scenario.QuoteColumns {
		opts = append(opts, fulltext.WithQuotedColumns())
	}
	return fulltext.New(h.columns(step), h.cfg, opts...)
}

func (h *Harness) predicate(step FlowStep) (fulltext.Predicate, error) {
	b, err := h.builder(step)
	if err != nil {
		return fulltext.Predicate{}, err
	}
	switch step.Op {
	case OpSearch:
		return b.Search(step.Keywords)
	case OpSearchTsQuery:
		return b.SearchUsingTsQuery(step.Keywords)
	default:
		mode, err := fulltext.ParseMatchMode(step.Mode)
		if err != nil {
			return fulltext.Predicate{}, fterr.Precondition("harness.match", "%v", err)
		}
		return b.Match(step.Keywords, mode)
	}
}

// record writes statements to an in-memory ledger with deterministic IDs
// and reads them back.
func (h *Harness) record(statements []string) ([]LedgerEntry, error) {
	st, err := store.Open(":memory:",
		store.WithIDGenerator(testutil.NewSequentialIDGenerator(h.scenario.Name)),
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	batch, err := st.RecordBatch(ctx, h.scenario.Name, statements)
	if err != nil {
		return nil, err
	}
	recorded, err := st.Statements(ctx, batch.ID)
	if err != nil {
		return nil, err
	}

	entries := make([]LedgerEntry, len(recorded))
	for i, s := range recorded {
		entries[i] = LedgerEntry{Position: s.Position, Kind: string(s.Kind), SQL: s.SQL}
	}
	return entries, nil
}

func errorCode(err error) string {
	if code := fterr.CodeOf(err); code != "" {
		return string(code)
	}
	return err.Error()
}

// checkExpect compares a step's event against its expect clause.
func checkExpect(i int, step FlowStep, event TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		return nil
	}

	var errs []string
	if exp.Error != "" {
		want := strings.ToUpper(exp.Error)
		if event.Error != want {
			errs = append(errs, fmt.Sprintf("flow[%d] %s: expected error %s, got %q", i, step.Op, want, event.Error))
		}
		return errs
	}

	if event.Error != "" {
		return append(errs, fmt.Sprintf("flow[%d] %s: unexpected error %s", i, step.Op, event.Error))
	}
	if exp.SQL != "" && event.SQL != exp.SQL {
		errs = append(errs, fmt.Sprintf("flow[%d] %s: sql mismatch\n  expected: %s\n  actual:   %s", i, step.Op, exp.SQL, event.SQL))
	}
	if exp.Params != nil && !reflect.DeepEqual(exp.Params, event.Params) {
		errs = append(errs, fmt.Sprintf("flow[%d] %s: params mismatch: expected %v, got %v", i, step.Op, exp.Params, event.Params))
	}
	return errs
}
