package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"presupuesto/internal/core"
)

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals, balance and per-category amounts",
		Long: `Summarize --user's whole ledger: the total of each kind, the balance
(income minus expenses, savings and investments) and the amount per category.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			sum := core.Summarize(l.All())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d movements\n\n", user, l.Len())
			writeTotals(out, sum.Totals)
			if len(sum.ByCategory) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "TIPO\tCATEGORÍA\tMONTO")
			for _, c := range sum.ByCategory {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Kind.Label(), c.Name, c.Amount)
			}
			return nil
		},
	}
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the categories of every kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			withSuggestions, _ := cmd.Flags().GetBool("suggestions")
			out := cmd.OutOrStdout()
			for _, k := range core.Kinds() {
				fmt.Fprintf(out, "%s (%s)\n", k.Label(), k)
				for _, c := range core.Categories(k) {
					line := "  " + c
					if withSuggestions {
						if sug := core.Suggestions(c); len(sug) > 0 {
							line += ": " + strings.Join(sug, ", ")
						}
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolP("suggestions", "s", false, "include description suggestions")
	return cmd
}
