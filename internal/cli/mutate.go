package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// MutationResult reports a single add or remove.
type MutationResult struct {
	Action string   `json:"action"`
	PType  string   `json:"ptype"`
	Fields []string `json:"fields"`
}

func (r MutationResult) String() string {
	return fmt.Sprintf("%s %s %v", r.Action, r.PType, r.Fields)
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <ptype> <field>...",
		Short: "Add one policy rule",
		Long: `Add one policy rule with up to six fields.

Examples:
  policyctl add p alice data1 read
  policyctl add g alice admin`,
		Args:          cobra.RangeArgs(2, 7),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(rootOpts, args[0], args[1:], cmd)
		},
	}
}

func runAdd(opts *RootOptions, ptype string, fields []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := context.Background()

	if ptype == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "ptype is required", nil)
	}

	s, err := openSession(ctx, opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.adapter.AddPolicyCtx(ctx, sectionOf(ptype), ptype, fields); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to add rule", err)
	}

	return formatter.Success(MutationResult{Action: "added", PType: ptype, Fields: fields})
}

// RemoveOptions holds flags for the remove command.
type RemoveOptions struct {
	*RootOptions
	FieldIndex int // -1 removes the exact rule
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <ptype> <field>...",
		Short: "Remove policy rules",
		Long: `Remove the rule holding exactly the given fields, or with --field-index
every rule whose fields starting at that index match. An empty value ("")
matches anything.

Examples:
  policyctl remove p alice data1 read
  policyctl remove p --field-index 1 data2
  policyctl remove p --field-index 0 "" data2 write`,
		Args:          cobra.RangeArgs(2, 7),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.FieldIndex, "field-index", -1, "remove by field window starting at this index")

	return cmd
}

func runRemove(opts *RemoveOptions, ptype string, fields []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	if ptype == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "ptype is required", nil)
	}

	s, err := openSession(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.FieldIndex < 0 {
		err = s.adapter.RemovePolicyCtx(ctx, sectionOf(ptype), ptype, fields)
	} else {
		err = s.adapter.RemoveFilteredPolicyCtx(ctx, sectionOf(ptype), ptype, opts.FieldIndex, fields...)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to remove rules", err)
	}

	return formatter.Success(MutationResult{Action: "removed", PType: ptype, Fields: fields})
}
