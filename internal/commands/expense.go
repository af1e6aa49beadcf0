package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/export"
)

type expenseFlags struct {
	date        string
	amount      string
	category    string
	description string
}

func (f *expenseFlags) register(cmd *cobra.Command, dateDefault string) {
	cmd.Flags().StringVar(&f.date, "date", dateDefault, "expense date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount spent, e.g. 12.50 or 12,50")
	cmd.Flags().StringVar(&f.category, "category", "", "category label, e.g. Food")
	cmd.Flags().StringVar(&f.description, "description", "", "optional free-text note")
}

// apply overlays the flags the user set onto in.
func (f *expenseFlags) apply(cmd *cobra.Command, in core.ExpenseInput) (core.ExpenseInput, error) {
	if cmd.Flags().Changed("date") || in.Date.IsZero() {
		d, err := core.ParseDate(f.date)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	if cmd.Flags().Changed("amount") || in.Amount.IsZero() {
		amt, err := core.ParseAmount(f.amount)
		if err != nil {
			return in, err
		}
		in.Amount = amt
	}
	if cmd.Flags().Changed("category") {
		in.Category = f.category
	}
	if cmd.Flags().Changed("description") {
		in.Description = f.description
	}
	return in, nil
}

func newAddCommand(a *app) *cobra.Command {
	var f expenseFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.apply(cmd, core.ExpenseInput{})
			if err != nil {
				return userError(err)
			}

			svc, cleanup, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			e, err := svc.AddExpense(cmd.Context(), in)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added expense #%d: %s %s %s\n",
				e.ID, e.Date, core.FormatAmount(e.Amount), e.Category)
			return nil
		},
	}

	f.register(cmd, time.Now().Format(core.DateLayout))
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			expenses, err := svc.ListExpenses(cmd.Context())
			if err != nil {
				return userError(err)
			}

			if format == "table" {
				return writeExpenseTable(cmd.OutOrStdout(), expenses)
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			return export.WriteExpenses(cmd.OutOrStdout(), f, expenses)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, csv, json or yaml")

	return cmd
}

func writeExpenseTable(w io.Writer, expenses []core.Expense) error {
	if len(expenses) == 0 {
		_, err := fmt.Fprintln(w, "No expenses recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Date, core.FormatAmount(e.Amount), e.Category, e.Description)
	}
	return tw.Flush()
}

func newUpdateCommand(a *app) *cobra.Command {
	var f expenseFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields of an existing expense",
		Long:  "Change the fields of an existing expense. Only the flags given are modified.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			svc, cleanup, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			current, err := svc.GetExpense(cmd.Context(), id)
			if err != nil {
				return userError(err)
			}
			in, err := f.apply(cmd, current.Input())
			if err != nil {
				return userError(err)
			}

			e, err := svc.UpdateExpense(cmd.Context(), id, in)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated expense #%d: %s %s %s\n",
				e.ID, e.Date, core.FormatAmount(e.Amount), e.Category)
			return nil
		},
	}

	f.register(cmd, "")

	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			svc, cleanup, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.DeleteExpense(cmd.Context(), id); err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense #%d\n", id)
			return nil
		},
	}
}

var errClearNotConfirmed = errors.New("refusing to delete every expense without --yes")

func newClearCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every expense and restart numbering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errClearNotConfirmed
			}

			svc, cleanup, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := svc.ClearExpenses(cmd.Context()); err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All expenses deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all data")

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}

// userError replaces storage failures with the generic message. The detail
// has already been logged by the service.
func userError(err error) error {
	if core.IsValidation(err) || core.IsNotFound(err) {
		return err
	}
	return errors.New(core.UserMessage(err))
}
