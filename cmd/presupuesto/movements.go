package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"presupuesto/internal/core"
	"presupuesto/internal/log"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a movement",
		Long: `Record an income, expense, saving or investment for --user.

The category must belong to the kind's vocabulary; see 'presupuesto categories'.
Amounts accept a comma or a dot as decimal separator.`,
		Example: `  presupuesto add -u ana --kind gasto --category Alimentos --description "Supermercado" --amount 45,90`,
		Args:    cobra.NoArgs,
		RunE:    runAdd,
	}
	cmd.Flags().StringP("kind", "k", "", "movement kind (income, expense, saving, investment or their Spanish names)")
	cmd.Flags().StringP("category", "c", "", "category name")
	cmd.Flags().StringP("description", "d", "", "free text description")
	cmd.Flags().StringP("amount", "a", "", "non-negative amount")
	for _, f := range []string{"kind", "category", "description", "amount"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	user, err := userFlag(cmd)
	if err != nil {
		return err
	}
	kindFlag, _ := cmd.Flags().GetString("kind")
	category, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")
	amountFlag, _ := cmd.Flags().GetString("amount")

	kind, err := core.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(amountFlag)
	if err != nil {
		return err
	}
	entry := core.Entry{
		Kind:        kind,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
		Amount:      amount,
	}
	if err := core.ValidateEntry(entry); err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	l, err := s.store.Load(cmd.Context(), user)
	if err != nil {
		return err
	}
	_, m, err := s.store.Record(cmd.Context(), l, entry)
	if err != nil {
		return err
	}
	log.NewStructuredLogger(s.logger).
		LogMovementChanged(cmd.Context(), log.OpCreate, user, m.ID, string(m.Kind), m.Category, m.Amount.Cents)

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s %s (%s)\n", m.Kind.Label(), m.Category, m.Amount, m.ID)
	return nil
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List movements in a date window",
		Long: `List --user's movements dated within [--from, --to], most recent first,
followed by the totals of every matching movement.

The window defaults to the first day of the current month through today.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
	addWindowFlags(cmd)
	cmd.Flags().Int("page", 1, "page number, starting at 1")
	cmd.Flags().Int("page-size", core.DefaultPageSize, "rows per page")
	cmd.Flags().String("kind", "", "only show movements of this kind")
	return cmd
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "first day of the window (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last day of the window (YYYY-MM-DD)")
}

// windowFlags parses --from and --to, defaulting to the current month
// through today.
func windowFlags(cmd *cobra.Command, today time.Time) (core.DateRange, error) {
	t := core.DateOf(today)
	r := core.DateRange{Start: core.NewDate(t.Year, t.Month, 1), End: t}
	if v, _ := cmd.Flags().GetString("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return r, err
		}
		r.Start = d
	}
	if v, _ := cmd.Flags().GetString("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return r, err
		}
		r.End = d
	}
	return r, nil
}

// filterKind keeps rows of kind k. An empty k keeps everything.
func filterKind(rows []core.Movement, k core.Kind) []core.Movement {
	if k == "" {
		return rows
	}
	out := make([]core.Movement, 0, len(rows))
	for _, m := range rows {
		if m.Kind == k {
			out = append(out, m)
		}
	}
	return out
}

func runList(cmd *cobra.Command, _ []string) error {
	user, err := userFlag(cmd)
	if err != nil {
		return err
	}
	window, err := windowFlags(cmd, time.Now())
	if err != nil {
		return err
	}
	var kind core.Kind
	if v, _ := cmd.Flags().GetString("kind"); v != "" {
		if kind, err = core.ParseKind(v); err != nil {
			return err
		}
	}
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("page-size")

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	l, err := s.store.Load(cmd.Context(), user)
	if err != nil {
		return err
	}
	rows := filterKind(core.QueryRange(l, window), kind)
	pageRows, info := core.Paginate(rows, page, size)

	out := cmd.OutOrStdout()
	if info.TotalRows == 0 {
		fmt.Fprintf(out, "No movements between %s and %s.\n", window.Start, window.End)
		return nil
	}
	writeMovements(out, pageRows)
	fmt.Fprintf(out, "\nPage %d of %d (%d movements)\n\n", info.Page, info.TotalPages, info.TotalRows)
	writeTotals(out, core.ComputeTotals(rows))
	return nil
}

func writeMovements(out io.Writer, rows []core.Movement) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "FECHA\tTIPO\tCATEGORÍA\tDESCRIPCIÓN\tMONTO\tID")
	for _, m := range rows {
		ts := ""
		if !m.Timestamp.IsZero() {
			ts = core.FormatTimestamp(m.Timestamp)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", ts, m.Kind.Label(), m.Category, m.Description, m.Amount, m.ID)
	}
}

func writeTotals(out io.Writer, t core.Totals) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	defer w.Flush()

	for _, k := range core.Kinds() {
		fmt.Fprintf(w, "Total %s\t%s\t\n", k.Label(), t.Of(k))
	}
	fmt.Fprintf(w, "Saldo\t%s\t\n", t.Balance())
}

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the amount of a movement",
		Args:  cobra.ExactArgs(1),
		RunE:  runEdit,
	}
	cmd.Flags().StringP("amount", "a", "", "new non-negative amount")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func runEdit(cmd *cobra.Command, args []string) error {
	user, err := userFlag(cmd)
	if err != nil {
		return err
	}
	amountFlag, _ := cmd.Flags().GetString("amount")
	amount, err := core.ParseAmount(amountFlag)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	l, err := s.store.Load(cmd.Context(), user)
	if err != nil {
		return err
	}
	_, m, err := s.store.Update(cmd.Context(), l, args[0], amount)
	if err != nil {
		return err
	}
	log.NewStructuredLogger(s.logger).
		LogMovementChanged(cmd.Context(), log.OpUpdate, user, m.ID, string(m.Kind), m.Category, m.Amount.Cents)

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s %s now %s\n", m.ID, m.Kind.Label(), m.Category, m.Amount)
	return nil
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a movement",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := userFlag(cmd)
			if err != nil {
				return err
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			l, err := s.store.Load(cmd.Context(), user)
			if err != nil {
				return err
			}
			if _, err := s.store.Remove(cmd.Context(), l, args[0]); err != nil {
				return err
			}
			log.NewStructuredLogger(s.logger).
				LogMovementChanged(cmd.Context(), log.OpDelete, user, args[0], "", "", 0)

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
