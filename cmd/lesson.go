package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quizforge/internal/classroom"
	"quizforge/internal/store"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Record and inspect lesson history",
}

var lessonAddCmd = &cobra.Command{
	Use:   "add <class-id>",
	Short: "Record a taught lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		summary, _ := cmd.Flags().GetString("summary")
		standards, _ := cmd.Flags().GetStringSlice("standards")
		when, _ := cmd.Flags().GetString("date")

		if topic == "" {
			return fmt.Errorf("--topic is required")
		}

		taughtAt := time.Now().UTC()
		if when != "" {
			t, err := time.Parse("2006-01-02", when)
			if err != nil {
				return fmt.Errorf("parse --date (want YYYY-MM-DD): %w", err)
			}
			taughtAt = t
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()

		// Reject unknown class IDs early, with the class list hint.
		if _, err := s.ClassRepo().Get(ctx, args[0]); err != nil {
			return fmt.Errorf("class %q: %w (try \"quizforge class list\")", args[0], err)
		}

		l := &store.Lesson{
			ClassID:   args[0],
			TaughtAt:  taughtAt,
			Topic:     topic,
			Summary:   summary,
			Standards: standards,
		}
		if err := s.LessonRepo().Add(ctx, l); err != nil {
			return err
		}

		fmt.Printf("Recorded lesson %d: %s (%s)\n", l.ID, topic, taughtAt.Format("2006-01-02"))
		return nil
	},
}

var lessonListCmd = &cobra.Command{
	Use:   "list <class-id>",
	Short: "List recent lessons for a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
		lessons, err := s.LessonRepo().ListSince(context.Background(), args[0], since)
		if err != nil {
			return err
		}
		if len(lessons) == 0 {
			fmt.Printf("No lessons in the last %d days.\n", days)
			return nil
		}

		for _, l := range lessons {
			line := fmt.Sprintf("%s  %s", l.TaughtAt.Format("2006-01-02"), l.Topic)
			if l.Summary != "" {
				line += "  " + l.Summary
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	lessonAddCmd.Flags().String("topic", "", "Topic taught")
	lessonAddCmd.Flags().String("summary", "", "Short lesson summary")
	lessonAddCmd.Flags().StringSlice("standards", nil, "Standard codes covered")
	lessonAddCmd.Flags().String("date", "", "Date taught (YYYY-MM-DD, default today)")

	lessonListCmd.Flags().Int("days", int(classroom.DefaultLookback.Hours()/24), "Lookback window in days")

	lessonCmd.AddCommand(lessonAddCmd)
	lessonCmd.AddCommand(lessonListCmd)
}
