package generation

import "context"

// Gateway is the boundary between the generation pipeline and the remote
// language model transport. Implementations own their retry budget; a
// returned error means the budget is exhausted and callers must not retry
// at this level without resetting their own counters.
type Gateway interface {
	// Generate sends one request built from the system and user prompts
	// and returns the cleaned response text.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

// Generate implements Gateway.
func (f GatewayFunc) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}
