package cli

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/spf13/cobra"
)

// EnforceOptions holds flags for the enforce command.
type EnforceOptions struct {
	*RootOptions
	Model string
}

// EnforceResult is the decision for one request.
type EnforceResult struct {
	Request []string `json:"request"`
	Allowed bool     `json:"allowed"`
}

func (r EnforceResult) String() string {
	if r.Allowed {
		return fmt.Sprintf("allow %v", r.Request)
	}
	return fmt.Sprintf("deny %v", r.Request)
}

// NewEnforceCommand creates the enforce command.
func NewEnforceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnforceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "enforce <value>...",
		Short: "Check a request against the stored policy",
		Long: `Load the stored policy into a casbin enforcer and evaluate one request.

The model file comes from --model, model.path in the config file or
CASBINSQL_MODEL_PATH.

Exit codes:
  0 - Request allowed
  1 - Request denied
  2 - Command error (model not found, database unreachable, etc.)

Examples:
  policyctl enforce --model rbac_model.conf alice data1 read`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnforce(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "path to casbin model file")

	return cmd
}

func runEnforce(opts *EnforceOptions, request []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(context.Background(), opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	modelPath := opts.Model
	if modelPath == "" {
		modelPath = s.cfg.Model.Path
	}
	if modelPath == "" {
		return formatter.Fail(ExitCommandError, ErrCodeModel, "no model file: set --model or model.path", nil)
	}

	e, err := casbin.NewEnforcer(modelPath, s.adapter)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeModel, fmt.Sprintf("failed to load model %s", modelPath), err)
	}

	rvals := make([]any, len(request))
	for i, v := range request {
		rvals[i] = v
	}
	allowed, err := e.Enforce(rvals...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeModel, "failed to evaluate request", err)
	}

	result := EnforceResult{Request: request, Allowed: allowed}
	if err := formatter.Success(result); err != nil {
		return err
	}
	if !allowed {
		return NewExitError(ExitFailure, "request denied")
	}
	return nil
}
