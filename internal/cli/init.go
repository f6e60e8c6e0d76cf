package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// InitResult describes the prepared policy table.
type InitResult struct {
	Driver  string `json:"driver"`
	Dialect string `json:"dialect"`
	Table   string `json:"table"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("Policy table %s ready (%s, %s)", r.Table, r.Driver, r.Dialect)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the policy table if it does not exist",
		Long: `Verify the database connection and create the policy table.

Safe to run repeatedly.

Examples:
  policyctl init --dsn ./casbin.db
  policyctl init --driver pgx --dsn postgres://localhost/authz --table casbin_rule`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := openSession(context.Background(), opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	return formatter.Success(InitResult{
		Driver:  s.cfg.Database.Driver,
		Dialect: s.cfg.Database.Dialect,
		Table:   s.adapter.TableName(),
	})
}
