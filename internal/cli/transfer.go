package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/casbinsql/internal/rule"
)

// ImportResult reports rules imported per ptype.
type ImportResult struct {
	File  string         `json:"file"`
	Rules map[string]int `json:"rules"`
	Total int            `json:"total"`
}

func (r ImportResult) String() string {
	return fmt.Sprintf("Imported %d rules from %s", r.Total, r.File)
}

// ExportResult reports an export written to a file.
type ExportResult struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

func (r ExportResult) String() string {
	return fmt.Sprintf("Exported %d rules to %s", r.Count, r.File)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <policy.csv>",
		Short: "Append rules from a casbin policy CSV file",
		Long: `Append every rule in a casbin policy CSV file ("p, alice, data1, read").

Lines starting with # are skipped. Rules of one ptype are written in a single
statement, so a bad rule leaves that ptype untouched.

Examples:
  policyctl import ./policy.csv
  policyctl import ./policy.csv --table authz_rules`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := context.Background()

	f, err := os.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	order, groups, err := readPolicyCSV(f)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, fmt.Sprintf("failed to read %s", path), err)
	}

	s, err := openSession(ctx, opts, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	result := ImportResult{File: path, Rules: make(map[string]int, len(order))}
	for _, ptype := range order {
		rules := groups[ptype]
		if err := s.adapter.AddPoliciesCtx(ctx, sectionOf(ptype), ptype, rules); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("failed to import %s rules", ptype), err)
		}
		formatter.VerboseLog("Imported %d %s rules", len(rules), ptype)
		result.Rules[ptype] = len(rules)
		result.Total += len(rules)
	}

	return formatter.Success(result)
}

// readPolicyCSV groups the records of a policy file by ptype, in order of
// first appearance.
func readPolicyCSV(r io.Reader) ([]string, map[string][][]string, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var order []string
	groups := make(map[string][][]string)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		line, _ := cr.FieldPos(0)

		ptype := record[0]
		if ptype == "" {
			return nil, nil, fmt.Errorf("line %d: missing ptype", line)
		}
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("line %d: rule has no fields", line)
		}
		if n := len(record) - 1; n > rule.MaxFields {
			return nil, nil, fmt.Errorf("line %d: rule has %d fields, at most %d are stored", line, n, rule.MaxFields)
		}

		if _, seen := groups[ptype]; !seen {
			order = append(order, ptype)
		}
		groups[ptype] = append(groups[ptype], record[1:])
	}

	return order, groups, nil
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every rule as casbin policy CSV",
		Long: `Write every stored rule as casbin policy CSV, readable by import and by
casbin's file adapter.

Examples:
  policyctl export > policy.csv
  policyctl export --output policy.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	s, err := openSession(ctx, opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	defer s.Close()

	rules, err := s.adapter.ListRulesCtx(ctx, nil)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to read rules", err)
	}

	if opts.Output == "" {
		if err := writePolicyCSV(cmd.OutOrStdout(), rules); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWrite, "failed to write rules", err)
		}
		return nil
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWrite, fmt.Sprintf("failed to create %s", opts.Output), err)
	}
	if err := writePolicyCSV(f, rules); err != nil {
		f.Close()
		return formatter.Fail(ExitCommandError, ErrCodeWrite, fmt.Sprintf("failed to write %s", opts.Output), err)
	}
	if err := f.Close(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWrite, fmt.Sprintf("failed to write %s", opts.Output), err)
	}

	return formatter.Success(ExportResult{File: opts.Output, Count: len(rules)})
}

func writePolicyCSV(w io.Writer, rules [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rules); err != nil {
		return err
	}
	return cw.Error()
}
