package harness

// TraceEvent records the outcome of one flow step.
type TraceEvent struct {
	Step     int        `json:"step"`
	Op       string     `json:"op"`
	Error    string     `json:"error,omitempty"` // adapter error code
	Removed  [][]string `json:"removed,omitempty"`
	Loaded   [][]string `json:"loaded,omitempty"`
	Filtered bool       `json:"filtered"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds expect and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// State is the table content after the flow, as policy lines.
	State [][]string `json:"state"`
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
