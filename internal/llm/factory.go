package llm

import (
	"context"
	"fmt"
)

// ApprovalState is the caller-owned record of which billable providers
// have been explicitly approved for the current session. The budget
// package supplies the concrete implementation; passing it in here keeps
// approval state out of package-level globals so concurrent requests only
// share it when the host application deliberately shares one session.
type ApprovalState interface {
	Approved(provider string) bool
}

// Selection is the result of resolving a provider name. The billable /
// fallback branch is an inspectable value rather than control flow hidden
// behind error handling.
type Selection struct {
	Provider Provider

	// Billable mirrors Provider.Billable for convenience at call sites
	// that only hold the Selection.
	Billable bool

	// FallbackReason is non-empty when the requested provider was
	// substituted with the fabricator (e.g. approval withheld).
	FallbackReason string
}

// SelectOptions controls factory behavior.
type SelectOptions struct {
	// FallbackOnUnapproved substitutes the fabricator instead of failing
	// when the requested provider is billable but not approved. The
	// substitution is recorded in Selection.FallbackReason.
	FallbackOnUnapproved bool
}

// Select resolves cfg.Provider to a concrete variant, enforcing the
// approval gate: no billable provider is ever returned unless approvals
// reports a prior explicit approval for it. Without approval the factory
// either substitutes the fabricator (opts.FallbackOnUnapproved) or
// returns ErrApprovalRequired.
func Select(ctx context.Context, cfg Config, approvals ApprovalState, opts SelectOptions) (Selection, error) {
	base, err := newBaseProvider(ctx, cfg)
	if err != nil {
		return Selection{}, err
	}

	if base.Billable() && (approvals == nil || !approvals.Approved(cfg.Provider)) {
		if opts.FallbackOnUnapproved {
			return Selection{
				Provider:       NewFabricator(),
				FallbackReason: fmt.Sprintf("provider %q not approved for this session", cfg.Provider),
			}, nil
		}
		return Selection{}, &ErrApprovalRequired{Provider: cfg.Provider}
	}

	return Selection{Provider: base, Billable: base.Billable()}, nil
}

// newBaseProvider constructs the undecorated variant for cfg.Provider.
func newBaseProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderFabricator:
		return NewFabricator(), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
}
