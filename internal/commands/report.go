package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
)

func newSummaryCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals by category and by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			sum, err := svc.Summary(cmd.Context())
			if err != nil {
				return userError(err)
			}

			if format == "table" {
				return writeSummaryTable(cmd.OutOrStdout(), sum)
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return export.WriteSummary(cmd.OutOrStdout(), f, sum)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, csv, json or yaml")

	return cmd
}

func writeSummaryTable(w io.Writer, sum core.Summary) error {
	fmt.Fprintf(w, "Total spent: %s\n", core.FormatAmount(sum.Total))
	fmt.Fprintf(w, "Expenses:    %d\n", sum.Count)
	if sum.Count == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CATEGORY\tTOTAL")
	for _, c := range sum.ByCategory {
		fmt.Fprintf(tw, "%s\t%s\n", c.Name, core.FormatAmount(c.Amount))
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DATE\tTOTAL")
	for _, d := range sum.Daily {
		fmt.Fprintf(tw, "%s\t%s\n", d.Date, core.FormatAmount(d.Amount))
	}
	return tw.Flush()
}

func newExportCommand(a *app) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every expense as CSV, JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			svc, cleanup, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			expenses, err := svc.ListExpenses(cmd.Context())
			if err != nil {
				return userError(err)
			}

			if output == "" || output == "-" {
				return export.WriteExpenses(cmd.OutOrStdout(), f, expenses)
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteExpenses(file, f, expenses); err != nil {
				_ = file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d expenses to %s\n", len(expenses), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "export format: csv, json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default stdout)")

	return cmd
}
