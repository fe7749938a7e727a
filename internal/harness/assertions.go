package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		if event.Error != "" {
			fmt.Fprintf(&buf, "  [%d] %s error=%s\n", event.Step, event.Op, event.Error)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Step, event.Op, event.SQL)
	}

	return buf.String()
}

// EvaluateAssertions runs all assertions and returns failure messages.
func EvaluateAssertions(trace []TraceEvent, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(trace, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(trace []TraceEvent, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, a)
	case AssertTraceCount:
		return assertTraceCount(trace, a)
	case AssertKeywordsBound:
		return assertKeywordsBound(trace)
	case AssertSharedDocument:
		return assertSharedDocument(trace)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks that some successful step's SQL contains the
// fragment. An op filter narrows the search.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if a.Op != "" && event.Op != a.Op {
			continue
		}
		if event.Error == "" && strings.Contains(event.SQL, a.Contains) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("sql containing %q", a.Contains),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceCount checks that op appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == a.Op {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s appears %d times", a.Op, a.Count),
			Actual:   fmt.Sprintf("%d times", count),
			Trace:    trace,
		}
	}
	return nil
}

func isPredicateOp(op string) bool {
	return op == OpSearch || op == OpSearchTsQuery || op == OpMatch
}

// assertKeywordsBound checks that every successful predicate binds its
// keywords as the single parameter and does not embed them in the SQL.
func assertKeywordsBound(trace []TraceEvent) error {
	for _, event := range trace {
		if !isPredicateOp(event.Op) || event.Error != "" {
			continue
		}
		if len(event.Params) != 1 || event.Params[0] != event.Keywords {
			return &AssertionError{
				Type:     AssertKeywordsBound,
				Expected: fmt.Sprintf("step %d params [%q]", event.Step, event.Keywords),
				Actual:   fmt.Sprintf("%v", event.Params),
				Trace:    trace,
			}
		}
		if strings.Contains(event.SQL, event.Keywords) {
			return &AssertionError{
				Type:     AssertKeywordsBound,
				Expected: fmt.Sprintf("step %d sql without %q", event.Step, event.Keywords),
				Actual:   event.SQL,
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertSharedDocument checks that at least one index and one predicate
// use the same document expression.
func assertSharedDocument(trace []TraceEvent) error {
	var indexDocs, predicateDocs []string
	for _, event := range trace {
		if event.Error != "" {
			continue
		}
		switch {
		case event.Op == OpFulltext:
			if doc, ok := indexDocument(event.SQL); ok {
				indexDocs = append(indexDocs, doc)
			}
		case isPredicateOp(event.Op):
			if doc, _, ok := strings.Cut(event.SQL, " @@ "); ok {
				predicateDocs = append(predicateDocs, doc)
			}
		}
	}

	for _, doc := range predicateDocs {
		if slices.Contains(indexDocs, doc) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertSharedDocument,
		Expected: "an index and a predicate over the same document expression",
		Actual:   fmt.Sprintf("index documents %q, predicate documents %q", indexDocs, predicateDocs),
		Trace:    trace,
	}
}

// indexDocument extracts the parenthesized document expression from
// create index DDL.
func indexDocument(sql string) (string, bool) {
	i := strings.Index(sql, " (to_tsvector(")
	if i < 0 || !strings.HasSuffix(sql, ")") {
		return "", false
	}
	return sql[i+2 : len(sql)-1], true
}
