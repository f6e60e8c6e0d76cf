package harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/casbinsql"
)

// DefaultModel is the RBAC model scenarios use unless they set their own.
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Harness executes scenario steps against one adapter.
type Harness struct {
	db        *sql.DB
	adapter   *casbinsql.Adapter
	modelText string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and adapter
// 2. Execute setup steps
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions against the final table
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	defer db.Close()
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	opts := []casbinsql.Option{
		casbinsql.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	}
	if scenario.Table != "" {
		opts = append(opts, casbinsql.WithTableName(scenario.Table))
	}
	adapter, err := casbinsql.NewAdapterCtx(ctx, db, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create adapter: %w", err)
	}

	h := &Harness{db: db, adapter: adapter, modelText: scenario.Model}
	if h.modelText == "" {
		h.modelText = DefaultModel
	}

	for i, step := range scenario.Setup {
		if _, err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("setup step %d (%s) failed: %w", i+1, step.Op, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		event, err := h.execute(ctx, step)
		if event == nil {
			return nil, fmt.Errorf("flow step %d (%s): %w", i+1, step.Op, err)
		}
		event.Step = i + 1
		event.Op = step.Op
		event.Error = errorCode(err)
		event.Filtered = adapter.IsFiltered()
		result.Trace = append(result.Trace, *event)

		checkExpect(result, *event, step.Expect, err)
	}

	state, err := adapter.ListRulesCtx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.State = state

	for _, assertion := range scenario.Assertions {
		if err := evaluateAssertion(result, adapter, assertion); err != nil {
			result.AddError(err.Error())
		}
	}

	return result, nil
}

// execute runs one step. A nil event means the step could not be attempted;
// otherwise err is the adapter's error, which may be expected.
func (h *Harness) execute(ctx context.Context, step Step) (*TraceEvent, error) {
	a := h.adapter
	sec := section(step.PType)
	event := &TraceEvent{}

	var err error
	switch step.Op {
	case OpAddPolicy:
		err = a.AddPolicyCtx(ctx, sec, step.PType, step.Rule)
	case OpAddPolicies:
		err = a.AddPoliciesCtx(ctx, sec, step.PType, step.Rules)
	case OpRemovePolicy:
		err = a.RemovePolicyCtx(ctx, sec, step.PType, step.Rule)
	case OpRemovePolicies:
		err = a.RemovePoliciesCtx(ctx, sec, step.PType, step.Rules)
	case OpRemoveFilteredPolicy:
		err = a.RemoveFilteredPolicyCtx(ctx, sec, step.PType, step.FieldIndex, step.Values...)
	case OpUpdatePolicy:
		err = a.UpdatePolicyCtx(ctx, sec, step.PType, step.Rule, step.NewRule)
	case OpUpdatePolicies:
		err = a.UpdatePoliciesCtx(ctx, sec, step.PType, step.Rules, step.NewRules)
	case OpUpdateFilteredPolicies:
		event.Removed, err = a.UpdateFilteredPoliciesCtx(ctx, sec, step.PType, step.NewRules, step.FieldIndex, step.Values...)
	case OpLoadPolicy, OpLoadFilteredPolicy:
		m, merr := model.NewModelFromString(h.modelText)
		if merr != nil {
			return nil, fmt.Errorf("invalid model: %w", merr)
		}
		if step.Op == OpLoadPolicy {
			err = a.LoadPolicyCtx(ctx, m)
		} else {
			err = a.LoadFilteredPolicyCtx(ctx, m, stepFilter(step))
		}
		if err == nil {
			event.Loaded = modelLines(m)
		}
	case OpSavePolicy:
		m, merr := h.modelWith(step.Lines)
		if merr != nil {
			return nil, merr
		}
		err = a.SavePolicyCtx(ctx, m)
	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}

	return event, err
}

func (h *Harness) modelWith(lines [][]string) (model.Model, error) {
	m, err := model.NewModelFromString(h.modelText)
	if err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return nil, fmt.Errorf("invalid save_policy line %v: %w", line, err)
		}
	}
	return m, nil
}

func stepFilter(step Step) any {
	if len(step.FilterColumns) > 0 || len(step.FilterValues) > 0 {
		return casbinsql.Filter{Columns: step.FilterColumns, Values: step.FilterValues}
	}
	return step.Filter
}

// modelLines lists the p and g rules held by m, ptype first, with ptypes
// sorted within each section.
func modelLines(m model.Model) [][]string {
	lines := [][]string{}
	for _, sec := range []string{"p", "g"} {
		for _, ptype := range slices.Sorted(maps.Keys(m[sec])) {
			for _, fields := range m[sec][ptype].Policy {
				lines = append(lines, append([]string{ptype}, fields...))
			}
		}
	}
	return lines
}

func section(ptype string) string {
	if ptype == "" {
		return ""
	}
	return ptype[:1]
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var ae *casbinsql.Error
	if errors.As(err, &ae) {
		return string(ae.Code)
	}
	return "UNKNOWN"
}
