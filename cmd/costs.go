package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Show accumulated model spend",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		recs, err := s.CostRepo().List(ctx, limit)
		if err != nil {
			return err
		}
		total, err := s.CostRepo().Total(ctx)
		if err != nil {
			return err
		}

		if len(recs) == 0 {
			fmt.Println("No billable calls recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tPROVIDER\tMODEL\tIN\tOUT\tUSD")
		for _, rec := range recs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.6f\n",
				rec.Timestamp.Format("2006-01-02 15:04"),
				rec.Provider, rec.Model,
				rec.InputTokens, rec.OutputTokens, rec.CostUSD)
		}
		w.Flush()

		fmt.Printf("\nTotal spend: $%.4f\n", total)
		return nil
	},
}

func init() {
	costsCmd.Flags().Int("limit", 20, "Most recent records to show (0 for all)")
}
