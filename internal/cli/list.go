package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Filter string // "column=value", optional
}

// ListResult holds listed rules, ptype first.
type ListResult struct {
	Rules [][]string `json:"rules"`
	Count int        `json:"count"`
}

// String renders one "ptype, v0, v1" line per rule.
func (r ListResult) String() string {
	if r.Count == 0 {
		return "No rules found."
	}
	lines := make([]string, len(r.Rules))
	for i, rule := range r.Rules {
		lines[i] = strings.Join(rule, ", ")
	}
	return strings.Join(lines, "\n")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored policy rules",
		Long: `List stored policy rules in table order.

--filter takes a single "column=value" expression where column is ptype or
v0..v5. Quotes and whitespace are ignored.

Examples:
  policyctl list
  policyctl list --filter "v0 = 'alice'"
  policyctl list --filter ptype=g --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "column=value filter")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	s, err := openSession(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	var filter any
	if opts.Filter != "" {
		filter = opts.Filter
	}

	rules, err := s.adapter.ListRulesCtx(ctx, filter)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("failed to list rules in %s", s.adapter.TableName()), err)
	}

	return formatter.Success(ListResult{Rules: rules, Count: len(rules)})
}
