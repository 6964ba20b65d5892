package quizgen

// Config controls the pipeline steps and the orchestrator loop.
type Config struct {
	// MaxAttempts bounds Generator invocations per request.
	MaxAttempts int

	AnalystMaxTokens   int
	GeneratorMaxTokens int
	CriticMaxTokens    int

	GeneratorTemperature float64
	CriticTemperature    float64
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:          3,
		AnalystMaxTokens:     512,
		GeneratorMaxTokens:   4096,
		CriticMaxTokens:      1024,
		GeneratorTemperature: 0.7,
		CriticTemperature:    0.0,
	}
}
