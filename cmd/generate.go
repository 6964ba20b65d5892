package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quizforge/internal/budget"
	"quizforge/internal/classroom"
	"quizforge/internal/config"
	"quizforge/internal/knowledge"
	"quizforge/internal/llm"
	"quizforge/internal/prompts"
	"quizforge/internal/quizgen"
	"quizforge/internal/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate <class-id>",
	Short: "Generate a quiz for a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		classID := args[0]

		appCfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		dbPath, err := resolveDBPath(cmd, appCfg)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		// Assemble generation context.
		params, err := paramsFromFlags(cmd)
		if err != nil {
			return err
		}
		tracker := knowledge.NewTracker(s.LessonRepo())
		assembler := classroom.NewAssembler(s.ClassRepo(), tracker)

		ctx := context.Background()
		gc, err := assembler.Assemble(ctx, classID, params)
		if err != nil {
			return err
		}

		// Resolve the provider behind the approval gate.
		llmCfg := llm.ConfigFromEnv()
		if p, _ := cmd.Flags().GetString("provider"); p != "" {
			llmCfg.Provider = p
		} else if appCfg.Provider != "" {
			llmCfg.Provider = appCfg.Provider
		}
		if err := llmCfg.Validate(); err != nil {
			return err
		}

		session := budget.NewSession()
		if llmCfg.Provider != llm.ProviderFabricator {
			if yes, _ := cmd.Flags().GetBool("yes"); yes {
				session.Approve(llmCfg.Provider)
			} else {
				session.EnsureApproved(llmCfg.Provider, func(provider string) bool {
					return promptApproval(provider, llmCfg, gc.QuestionCount)
				})
			}
		}

		fallback, _ := cmd.Flags().GetBool("fallback")
		sel, err := llm.Select(ctx, llmCfg, session, llm.SelectOptions{FallbackOnUnapproved: fallback})
		if err != nil {
			return err
		}
		if sel.FallbackReason != "" {
			fmt.Printf("Using fabricator: %s\n", sel.FallbackReason)
		}

		// Decorate: budget guard outermost so ceiling refusals are never
		// retried as transient faults.
		guard := budget.NewGuard(budget.Limits{
			MaxCalls:       appCfg.Budget.MaxCalls,
			MaxCostUSD:     appCfg.Budget.MaxCostUSD,
			CallsPerMinute: appCfg.Budget.CallsPerMinute,
		}, costSinks(s, appCfg)...)

		provider := llm.WithLogging(sel.Provider, s.EventRepo())
		provider = llm.WithRetry(provider, llmCfg.Retry)
		provider = budget.WithGuard(provider, guard)

		// Run the pipeline.
		templates, err := prompts.Load(appCfg.TemplatesDir)
		if err != nil {
			return err
		}
		genCfg := quizgen.DefaultConfig()
		if appCfg.Pipeline.MaxAttempts > 0 {
			genCfg.MaxAttempts = appCfg.Pipeline.MaxAttempts
		}

		reference, err := readReference(cmd)
		if err != nil {
			return err
		}

		orch := quizgen.NewOrchestrator(
			quizgen.NewAnalyst(provider, templates, genCfg),
			quizgen.NewGenerator(provider, templates, genCfg),
			quizgen.NewCritic(provider, templates, genCfg),
			genCfg,
		)

		result, err := orch.Run(ctx, quizgen.RunInput{Context: gc, Reference: reference})
		if err != nil {
			return err
		}

		if err := persistQuiz(ctx, s, classID, result); err != nil {
			return err
		}

		printResult(result, guard)
		return nil
	},
}

func init() {
	generateCmd.Flags().Int("count", 0, "Number of questions (default: class default)")
	generateCmd.Flags().Int("difficulty", 0, "Target difficulty 1-5")
	generateCmd.Flags().Int("grade", 0, "Grade level override")
	generateCmd.Flags().StringSlice("types", nil, "Allowed question types")
	generateCmd.Flags().StringSlice("standards", nil, "Standards override (ordered codes)")
	generateCmd.Flags().String("reference", "", "Path to reference assessment text to mimic")
	generateCmd.Flags().String("provider", "", "Model provider (overrides config)")
	generateCmd.Flags().Bool("yes", false, "Approve billable provider use for this run without prompting")
	generateCmd.Flags().Bool("fallback", false, "Fall back to the fabricator instead of failing when unapproved")
}

func paramsFromFlags(cmd *cobra.Command) (classroom.RequestParams, error) {
	count, _ := cmd.Flags().GetInt("count")
	difficulty, _ := cmd.Flags().GetInt("difficulty")
	grade, _ := cmd.Flags().GetInt("grade")
	types, _ := cmd.Flags().GetStringSlice("types")
	standards, _ := cmd.Flags().GetStringSlice("standards")

	for _, t := range types {
		if !classroom.IsKnownType(t) {
			return classroom.RequestParams{}, fmt.Errorf("unknown question type %q (known: %s)",
				t, strings.Join(classroom.QuestionTypes, ", "))
		}
	}
	if difficulty < 0 || difficulty > 5 {
		return classroom.RequestParams{}, fmt.Errorf("difficulty must be 1-5, got %d", difficulty)
	}

	return classroom.RequestParams{
		QuestionCount:     count,
		Difficulty:        difficulty,
		GradeOverride:     grade,
		AllowedTypes:      types,
		StandardsOverride: standards,
	}, nil
}

func readReference(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("reference")
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read reference material: %w", err)
	}
	return string(data), nil
}

// promptApproval asks once on the terminal before billable use. Anything
// other than an explicit "yes"/"y" denies.
func promptApproval(provider string, cfg llm.Config, questionCount int) bool {
	model := modelFor(provider, cfg)
	est := budget.EstimateCost(model, 4000, questionCount)
	fmt.Printf("Provider %q (model %s) bills real money; one quiz run is estimated around $%.4f.\n",
		provider, model, est)
	fmt.Print("Proceed? [yes/no]: ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

func modelFor(provider string, cfg llm.Config) string {
	switch provider {
	case "anthropic":
		return cfg.Anthropic.Model
	case "openai":
		return cfg.OpenAI.Model
	case "gemini":
		return cfg.Gemini.Model
	case "openrouter":
		return cfg.OpenRouter.Model
	default:
		return provider
	}
}

func costSinks(s *store.Store, appCfg config.Config) []budget.CostSink {
	sinks := []budget.CostSink{s.CostRepo()}
	if appCfg.Ledger != "" {
		sinks = append(sinks, budget.NewFileLedger(appCfg.Ledger))
	}
	return sinks
}

func persistQuiz(ctx context.Context, s *store.Store, classID string, result *quizgen.Result) error {
	profileJSON, err := json.Marshal(result.Profile)
	if err != nil {
		return fmt.Errorf("marshal style profile: %w", err)
	}

	var questions []string
	if result.Draft != nil {
		questions = make([]string, 0, len(result.Draft.Questions))
		for _, q := range result.Draft.Questions {
			payload, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal question: %w", err)
			}
			questions = append(questions, string(payload))
		}
	}

	return s.QuizRepo().Save(ctx, &store.Quiz{
		ID:           result.RequestID,
		ClassID:      classID,
		CreatedAt:    time.Now().UTC(),
		Approved:     result.Approved,
		AttemptCount: len(result.Attempts),
		StyleProfile: string(profileJSON),
		Questions:    questions,
	})
}

func printResult(result *quizgen.Result, guard *budget.Guard) {
	status := "approved"
	if !result.Approved {
		status = "NOT approved: review before use"
	}
	count := 0
	if result.Draft != nil {
		count = len(result.Draft.Questions)
	}
	fmt.Printf("Quiz %s: %d questions, %d attempt(s), %s\n",
		result.RequestID, count, len(result.Attempts), status)

	if !result.Approved {
		last := result.Attempts[len(result.Attempts)-1]
		for _, v := range last.Critique.Violations {
			fmt.Printf("  - %s\n", v)
		}
	}

	if guard.Calls() > 0 {
		fmt.Printf("Billable calls: %d, spent: $%.4f\n", guard.Calls(), guard.Spent())
	}
}
