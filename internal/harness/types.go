package harness

// TraceEvent records one check: what was reduced, how, and what came out.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Check   int      `json:"check"`
	Expr    string   `json:"expr"`
	Mode    string   `json:"mode"`
	Input   string   `json:"input"`
	Output  string   `json:"output"`
	Outcome string   `json:"outcome"`
	Deps    []string `json:"deps"`

	// Set only when the check asked for them.
	Equal *bool  `json:"equal,omitempty"`
	Order string `json:"order,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every check and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds one event per check, in check order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists every mismatch. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
