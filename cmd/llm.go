package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quizforge/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryModelEvents(context.Background(), store.QueryOpts{
			Limit:   limit,
			Purpose: purpose,
		})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No model requests recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tPROVIDER\tMODEL\tPURPOSE\tTOKENS\tMS\tOK")
		for _, e := range events {
			status := "yes"
			if !e.Success {
				status = "no"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
				e.ID, e.Timestamp.Format("01-02 15:04"),
				e.Provider, e.Model, e.Purpose,
				e.InputTokens, e.OutputTokens, e.LatencyMs, status)
		}
		w.Flush()
		return nil
	},
}

var llmShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one model request's full payloads",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryModelEvents(context.Background(), store.QueryOpts{})
		if err != nil {
			return err
		}
		for _, e := range events {
			if fmt.Sprintf("%d", e.ID) != args[0] {
				continue
			}
			fmt.Printf("Event %d  %s  %s/%s  purpose=%s\n",
				e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), e.Provider, e.Model, e.Purpose)
			if e.ErrorMessage != "" {
				fmt.Printf("Error: %s\n", e.ErrorMessage)
			}
			fmt.Printf("\n--- request ---\n%s\n\n--- response ---\n%s\n", e.RequestBody, e.ResponseBody)
			return nil
		}
		return fmt.Errorf("no model event with id %s", args[0])
	},
}

func init() {
	llmListCmd.Flags().Int("limit", 20, "Most recent events to show (0 for all)")
	llmListCmd.Flags().String("purpose", "", "Filter by purpose label (analyst, generator, critic)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmShowCmd)
}
