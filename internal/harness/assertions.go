package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/casbinsql"
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
			fmt.Fprintf(&buf, "  [%d] %s -> %s\n", event.Step, event.Op, event.Error)
		} else {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Step, event.Op)
		}
	}

	return buf.String()
}

// checkExpect compares a flow step's outcome with its expect clause. A step
// without one must succeed.
func checkExpect(result *Result, event TraceEvent, expect *Expect, err error) {
	if expect == nil {
		if err != nil {
			result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", event.Step, event.Op, err))
		}
		return
	}

	if event.Error != expect.Error {
		result.AddError(fmt.Sprintf("step %d (%s): expected error %q, got %q (%v)",
			event.Step, event.Op, expect.Error, event.Error, err))
		return
	}
	if expect.Removed != nil && !reflect.DeepEqual(expect.Removed, event.Removed) {
		result.AddError(fmt.Sprintf("step %d (%s): expected removed %v, got %v",
			event.Step, event.Op, expect.Removed, event.Removed))
	}
	if expect.Loaded != nil && !reflect.DeepEqual(expect.Loaded, event.Loaded) {
		result.AddError(fmt.Sprintf("step %d (%s): expected loaded %v, got %v",
			event.Step, event.Op, expect.Loaded, event.Loaded))
	}
}

func evaluateAssertion(result *Result, a *casbinsql.Adapter, assertion Assertion) error {
	switch assertion.Type {
	case AssertTableRows:
		if !reflect.DeepEqual(assertion.Rows, result.State) {
			return &AssertionError{
				Type:     AssertTableRows,
				Expected: fmt.Sprintf("%v", assertion.Rows),
				Actual:   fmt.Sprintf("%v", result.State),
				Trace:    result.Trace,
			}
		}
	case AssertTableCount:
		if len(result.State) != assertion.Count {
			return &AssertionError{
				Type:     AssertTableCount,
				Expected: fmt.Sprintf("%d rows", assertion.Count),
				Actual:   fmt.Sprintf("%d rows", len(result.State)),
				Trace:    result.Trace,
			}
		}
	case AssertFiltered:
		if a.IsFiltered() != assertion.Filtered {
			return &AssertionError{
				Type:     AssertFiltered,
				Expected: fmt.Sprintf("filtered=%t", assertion.Filtered),
				Actual:   fmt.Sprintf("filtered=%t", a.IsFiltered()),
				Trace:    result.Trace,
			}
		}
	default:
		return fmt.Errorf("unknown assertion type: %s", assertion.Type)
	}
	return nil
}
