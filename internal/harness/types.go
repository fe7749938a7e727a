package harness

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Step     int    `json:"step"`
	Op       string `json:"op"`
	Keywords string `json:"keywords,omitempty"`
	SQL      string `json:"sql,omitempty"`
	Params   []any  `json:"params,omitempty"`
	Error    string `json:"error,omitempty"` // error code when the step failed
}

// LedgerEntry is a DDL statement as recorded in the scenario's ledger.
type LedgerEntry struct {
	Position int    `json:"position"`
	Kind     string `json:"kind"`
	SQL      string `json:"sql"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Trace contains every step in order.
	Trace []TraceEvent `json:"trace"`

	// Ledger contains the DDL recorded for the scenario, if any.
	Ledger []LedgerEntry `json:"ledger,omitempty"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
