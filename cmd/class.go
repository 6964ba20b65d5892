package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quizforge/internal/store"
)

var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Manage class configurations",
}

var classAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetInt("grade")
		subject, _ := cmd.Flags().GetString("subject")
		standards, _ := cmd.Flags().GetStringSlice("standards")

		if grade < 1 || grade > 12 {
			return fmt.Errorf("grade must be 1-12, got %d", grade)
		}
		if subject == "" {
			return fmt.Errorf("--subject is required")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		c := &store.Class{
			ID:        uuid.NewString(),
			Name:      args[0],
			Grade:     grade,
			Subject:   subject,
			Standards: standards,
		}
		if err := s.ClassRepo().Create(context.Background(), c); err != nil {
			return err
		}

		fmt.Printf("Created class %s (%s)\n", c.Name, c.ID)
		return nil
	},
}

var classListCmd = &cobra.Command{
	Use:   "list",
	Short: "List classes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		classes, err := s.ClassRepo().List(context.Background())
		if err != nil {
			return err
		}
		if len(classes) == 0 {
			fmt.Println("No classes found.")
			return nil
		}

		fmt.Printf("%-36s  %-20s  %-5s  %-12s  %s\n", "ID", "Name", "Grade", "Subject", "Standards")
		for _, c := range classes {
			fmt.Printf("%-36s  %-20s  %-5d  %-12s  %s\n",
				c.ID, c.Name, c.Grade, c.Subject, strings.Join(c.Standards, ", "))
		}
		return nil
	},
}

func init() {
	classAddCmd.Flags().Int("grade", 0, "Grade level (1-12)")
	classAddCmd.Flags().String("subject", "", "Subject, e.g. \"biology\"")
	classAddCmd.Flags().StringSlice("standards", nil, "Ordered standard codes")

	classCmd.AddCommand(classAddCmd)
	classCmd.AddCommand(classListCmd)
}

// openStore resolves config and opens the database. Shared by the small
// CRUD-ish subcommands.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cmd, appCfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
