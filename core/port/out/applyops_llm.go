package out

import "context"

// LLMClient is the outbound port for language-model completions.
type LLMClient interface {
	// Complete returns a plain-text completion.
	Complete(ctx context.Context, system, prompt string) (string, error)

	// CompleteJSON returns a completion expected to be a single JSON
	// object, with any markdown fencing already stripped.
	CompleteJSON(ctx context.Context, system, prompt string) (string, error)
}

// RateLimitChecker reports whether an LLM error is a quota or rate-limit
// failure, which callers may treat as "degrade, don't fail".
type RateLimitChecker interface {
	IsRateLimited(err error) bool
}
