package cmd

import (
	"github.com/spf13/cobra"

	"quizforge/internal/config"
	"quizforge/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "quizforge",
	Short: "AI quiz generation for teachers",
	Long: "QuizForge turns a class's recent lessons and standards into a reviewed,\n" +
		"structured quiz by orchestrating analyst, generator, and critic model steps.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZFORGE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides QUIZFORGE_CONFIG env var)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(classCmd)
	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(costsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then the config file, then QUIZFORGE_DB / the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// loadConfig reads the app config honoring the --config flag.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
