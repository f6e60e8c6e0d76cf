package casbinsql

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"

	"github.com/roach88/casbinsql/internal/metrics"
	"github.com/roach88/casbinsql/internal/queryir"
	"github.com/roach88/casbinsql/internal/rule"
	"github.com/roach88/casbinsql/internal/store"
)

var (
	_ persist.Adapter          = (*Adapter)(nil)
	_ persist.ContextAdapter   = (*Adapter)(nil)
	_ persist.FilteredAdapter  = (*Adapter)(nil)
	_ persist.BatchAdapter     = (*Adapter)(nil)
	_ persist.UpdatableAdapter = (*Adapter)(nil)
)

// savedSections are the model sections SavePolicy writes, in order.
var savedSections = []string{"p", "g"}

// Adapter stores casbin policy rules in one SQL table.
type Adapter struct {
	store    *store.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	filtered atomic.Bool
}

// NewAdapter verifies db and creates the policy table if it is missing.
func NewAdapter(db Conn, opts ...Option) (*Adapter, error) {
	return NewAdapterCtx(context.Background(), db, opts...)
}

// NewAdapterWithTable is NewAdapter with a table name.
func NewAdapterWithTable(db Conn, table string) (*Adapter, error) {
	return NewAdapter(db, WithTableName(table))
}

// NewAdapterCtx is NewAdapter with a context for the ping and CREATE TABLE.
func NewAdapterCtx(ctx context.Context, db Conn, opts ...Option) (*Adapter, error) {
	o := options{
		table:   DefaultTableName,
		dialect: DialectSQLite,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := store.Open(ctx, db, store.Config{
		Table:   o.table,
		Dialect: o.dialect,
		Logger:  o.logger,
		Metrics: o.metrics,
	})
	if err != nil {
		return nil, wrap("new_adapter", err)
	}

	return &Adapter{
		store:   s,
		logger:  o.logger,
		metrics: o.metrics,
	}, nil
}

// TableName returns the policy table name.
func (a *Adapter) TableName() string {
	return a.store.Table()
}

// IsFiltered returns true if the loaded policy has been filtered.
func (a *Adapter) IsFiltered() bool {
	return a.filtered.Load()
}

// SetFiltered sets the filtered flag. Nothing else clears it.
func (a *Adapter) SetFiltered(filtered bool) {
	a.filtered.Store(filtered)
}

// LoadPolicy loads all policy rules from storage into m.
func (a *Adapter) LoadPolicy(m model.Model) error {
	return a.LoadPolicyCtx(context.Background(), m)
}

// LoadPolicyCtx loads all policy rules from storage into m.
func (a *Adapter) LoadPolicyCtx(ctx context.Context, m model.Model) error {
	return a.observe("load_policy", func() error {
		n, err := a.loadRows(ctx, queryir.Select{}, m)
		if err != nil {
			return err
		}
		a.logger.Debug("policy loaded", "table", a.TableName(), "rules", n)
		return nil
	})
}

// SavePolicy replaces the stored policy with every p and g rule in m.
func (a *Adapter) SavePolicy(m model.Model) error {
	return a.SavePolicyCtx(context.Background(), m)
}

// SavePolicyCtx replaces the stored policy with every p and g rule in m, in
// one transaction. Saving after a filtered load is the caller's decision; it
// drops every stored rule the filter did not load.
func (a *Adapter) SavePolicyCtx(ctx context.Context, m model.Model) error {
	if a.IsFiltered() {
		a.logger.Warn("saving policy while filtered; rules outside the filter will be removed",
			"table", a.TableName())
	}

	return a.observe("save_policy", func() error {
		return a.store.WithTx(ctx, "save_policy", func(q store.Querier) error {
			if _, err := a.store.Exec(ctx, q, queryir.Delete{All: true}); err != nil {
				return fmt.Errorf("clear table: %w", err)
			}

			for _, sec := range savedSections {
				for _, ptype := range slices.Sorted(maps.Keys(m[sec])) {
					for _, fields := range m[sec][ptype].Policy {
						if _, err := a.store.Exec(ctx, q, queryir.Insert{PType: ptype, Fields: fields}); err != nil {
							return fmt.Errorf("save %s rule %v: %w", ptype, fields, err)
						}
					}
				}
			}
			return nil
		})
	})
}

// AddPolicy adds a policy rule to the storage.
func (a *Adapter) AddPolicy(sec string, ptype string, fields []string) error {
	return a.AddPolicyCtx(context.Background(), sec, ptype, fields)
}

// AddPolicyCtx inserts one row holding exactly the supplied fields.
func (a *Adapter) AddPolicyCtx(ctx context.Context, sec string, ptype string, fields []string) error {
	return a.observe("add_policy", func() error {
		_, err := a.store.Exec(ctx, a.store.Conn(), queryir.Insert{PType: ptype, Fields: fields})
		return err
	})
}

// AddPolicies adds policy rules to the storage.
func (a *Adapter) AddPolicies(sec string, ptype string, rules [][]string) error {
	return a.AddPoliciesCtx(context.Background(), sec, ptype, rules)
}

// AddPoliciesCtx inserts all rules with a single multi-row INSERT, so either
// every row lands or none does. An empty batch is a no-op.
func (a *Adapter) AddPoliciesCtx(ctx context.Context, sec string, ptype string, rules [][]string) error {
	if len(rules) == 0 {
		return nil
	}
	return a.observe("add_policies", func() error {
		_, err := a.store.Exec(ctx, a.store.Conn(), queryir.InsertBatch{PType: ptype, Rules: rules})
		return err
	})
}

// RemovePolicy removes a policy rule from the storage.
func (a *Adapter) RemovePolicy(sec string, ptype string, fields []string) error {
	return a.RemovePolicyCtx(context.Background(), sec, ptype, fields)
}

// RemovePolicyCtx deletes the rows holding exactly the given fields.
func (a *Adapter) RemovePolicyCtx(ctx context.Context, sec string, ptype string, fields []string) error {
	return a.observe("remove_policy", func() error {
		_, err := a.store.Exec(ctx, a.store.Conn(), queryir.Delete{Where: queryir.RuleMatch(ptype, fields)})
		return err
	})
}

// RemovePolicies removes policy rules from the storage.
func (a *Adapter) RemovePolicies(sec string, ptype string, rules [][]string) error {
	return a.RemovePoliciesCtx(context.Background(), sec, ptype, rules)
}

// RemovePoliciesCtx deletes every rule in one transaction.
func (a *Adapter) RemovePoliciesCtx(ctx context.Context, sec string, ptype string, rules [][]string) error {
	return a.observe("remove_policies", func() error {
		return a.store.WithTx(ctx, "remove_policies", func(q store.Querier) error {
			for _, r := range rules {
				if _, err := a.store.Exec(ctx, q, queryir.Delete{Where: queryir.RuleMatch(ptype, r)}); err != nil {
					return fmt.Errorf("remove %s rule %v: %w", ptype, r, err)
				}
			}
			return nil
		})
	})
}

// RemoveFilteredPolicy removes policy rules that match the filter from the storage.
func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.RemoveFilteredPolicyCtx(context.Background(), sec, ptype, fieldIndex, fieldValues...)
}

// RemoveFilteredPolicyCtx deletes rows of ptype whose fields starting at
// fieldIndex equal fieldValues. Empty values match anything.
func (a *Adapter) RemoveFilteredPolicyCtx(ctx context.Context, sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.observe("remove_filtered_policy", func() error {
		return a.store.WithTx(ctx, "remove_filtered_policy", func(q store.Querier) error {
			_, err := a.removeFiltered(ctx, q, ptype, fieldIndex, fieldValues)
			return err
		})
	})
}

// LoadFilteredPolicy loads only policy rules that match the filter.
func (a *Adapter) LoadFilteredPolicy(m model.Model, filter interface{}) error {
	return a.LoadFilteredPolicyCtx(context.Background(), m, filter)
}

// LoadFilteredPolicyCtx loads the rows matching filter into m and marks the
// adapter filtered. See Filter and FilterFunc for the accepted shapes.
func (a *Adapter) LoadFilteredPolicyCtx(ctx context.Context, m model.Model, filter any) error {
	return a.observe("load_filtered_policy", func() error {
		eqs, err := normalizeFilter(filter)
		if err != nil {
			return &Error{Code: ErrCodeUnsupportedFilter, Op: "load_filtered_policy", Err: err}
		}

		n, err := a.loadRows(ctx, queryir.Select{Where: queryir.Conjunction(eqs)}, m)
		if err != nil {
			return err
		}

		a.SetFiltered(true)
		a.logger.Debug("filtered policy loaded", "table", a.TableName(), "rules", n, "constraints", len(eqs))
		return nil
	})
}

// UpdatePolicy updates a policy rule from storage.
func (a *Adapter) UpdatePolicy(sec string, ptype string, oldRule, newRule []string) error {
	return a.UpdatePolicyCtx(context.Background(), sec, ptype, oldRule, newRule)
}

// UpdatePolicyCtx sets v0..v(n-1) to newRule on rows holding exactly oldRule.
func (a *Adapter) UpdatePolicyCtx(ctx context.Context, sec string, ptype string, oldRule, newRule []string) error {
	return a.observe("update_policy", func() error {
		_, err := a.store.Exec(ctx, a.store.Conn(), updateStmt(ptype, oldRule, newRule))
		return err
	})
}

// UpdatePolicies updates some policy rules to storage.
func (a *Adapter) UpdatePolicies(sec string, ptype string, oldRules, newRules [][]string) error {
	return a.UpdatePoliciesCtx(context.Background(), sec, ptype, oldRules, newRules)
}

// UpdatePoliciesCtx replaces oldRules[i] with newRules[i] in one transaction.
func (a *Adapter) UpdatePoliciesCtx(ctx context.Context, sec string, ptype string, oldRules, newRules [][]string) error {
	return a.observe("update_policies", func() error {
		if len(oldRules) != len(newRules) {
			return &Error{
				Code: ErrCodePrepare,
				Op:   "update_policies",
				Err:  fmt.Errorf("%d old rules but %d new rules", len(oldRules), len(newRules)),
			}
		}

		return a.store.WithTx(ctx, "update_policies", func(q store.Querier) error {
			for i, oldRule := range oldRules {
				if _, err := a.store.Exec(ctx, q, updateStmt(ptype, oldRule, newRules[i])); err != nil {
					return fmt.Errorf("update %s rule %v: %w", ptype, oldRule, err)
				}
			}
			return nil
		})
	})
}

// UpdateFilteredPolicies deletes old rules and adds new rules.
func (a *Adapter) UpdateFilteredPolicies(sec string, ptype string, newRules [][]string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	return a.UpdateFilteredPoliciesCtx(context.Background(), sec, ptype, newRules, fieldIndex, fieldValues...)
}

// UpdateFilteredPoliciesCtx removes the rows matched by the field window and
// inserts newRules, in one transaction. It returns the removed rules.
func (a *Adapter) UpdateFilteredPoliciesCtx(ctx context.Context, sec string, ptype string, newRules [][]string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	var oldRules [][]string

	err := a.observe("update_filtered_policies", func() error {
		return a.store.WithTx(ctx, "update_filtered_policies", func(q store.Querier) error {
			removed, err := a.removeFiltered(ctx, q, ptype, fieldIndex, fieldValues)
			if err != nil {
				return err
			}
			if len(newRules) > 0 {
				if _, err := a.store.Exec(ctx, q, queryir.InsertBatch{PType: ptype, Rules: newRules}); err != nil {
					return fmt.Errorf("insert replacement rules: %w", err)
				}
			}
			oldRules = removed
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return oldRules, nil
}

// ListRules returns stored rules as policy lines, ptype first.
func (a *Adapter) ListRules(filter any) ([][]string, error) {
	return a.ListRulesCtx(context.Background(), filter)
}

// ListRulesCtx returns stored rules as policy lines, ptype first, in table
// order. A nil filter lists every rule; any other filter is read as in
// LoadFilteredPolicy. It needs no model and leaves the filtered flag alone.
func (a *Adapter) ListRulesCtx(ctx context.Context, filter any) ([][]string, error) {
	var lines [][]string

	err := a.observe("list_rules", func() error {
		var sel queryir.Select
		if filter != nil {
			eqs, err := normalizeFilter(filter)
			if err != nil {
				return &Error{Code: ErrCodeUnsupportedFilter, Op: "list_rules", Err: err}
			}
			sel.Where = queryir.Conjunction(eqs)
		}

		rows, err := a.store.Query(ctx, a.store.Conn(), sel)
		if err != nil {
			return err
		}

		lines = make([][]string, 0, len(rows))
		for _, row := range rows {
			if r := rule.Decode(row); r.PType != "" {
				lines = append(lines, r.Line())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

// loadRows selects rows and adds each decoded rule to m. Full and filtered
// loads share this path so both decode rows identically.
func (a *Adapter) loadRows(ctx context.Context, sel queryir.Select, m model.Model) (int, error) {
	rows, err := a.store.Query(ctx, a.store.Conn(), sel)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, row := range rows {
		r := rule.Decode(row)
		if r.PType == "" {
			a.logger.Warn("skipping policy row without ptype", "table", a.TableName(), "id", row.ID)
			continue
		}
		if err := persist.LoadPolicyArray(r.Line(), m); err != nil {
			return loaded, fmt.Errorf("load policy row %d (%s): %w", row.ID, r, err)
		}
		loaded++
	}

	return loaded, nil
}

// removeFiltered selects the rows in the field window, then deletes them.
// It must run on a transaction so the returned rules are exactly those removed.
func (a *Adapter) removeFiltered(ctx context.Context, q store.Querier, ptype string, fieldIndex int, fieldValues []string) ([][]string, error) {
	where := queryir.FieldWindow(ptype, fieldIndex, fieldValues...)

	rows, err := a.store.Query(ctx, q, queryir.Select{Where: where})
	if err != nil {
		return nil, fmt.Errorf("select filtered rules: %w", err)
	}

	removed := make([][]string, 0, len(rows))
	for _, row := range rows {
		removed = append(removed, rule.Decode(row).Fields())
	}

	if _, err := a.store.Exec(ctx, q, queryir.Delete{Where: where}); err != nil {
		return nil, fmt.Errorf("delete filtered rules: %w", err)
	}

	return removed, nil
}

// observe runs fn, tags its error with op and records metrics.
func (a *Adapter) observe(op string, fn func() error) error {
	start := time.Now()
	err := wrap(op, fn())
	a.metrics.ObserveOperation(op, start, err)
	if err != nil {
		a.logger.Debug("adapter operation failed", "op", op, "error", err)
	}
	return err
}

func updateStmt(ptype string, oldRule, newRule []string) queryir.Update {
	return queryir.Update{Set: newRule, Where: queryir.RuleMatch(ptype, oldRule)}
}
