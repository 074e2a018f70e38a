package ai

import "context"

// systemPrompt frames every salary question, whichever provider answers it.
const systemPrompt = "You are a salary research expert for the Indian job market. Respond only in JSON."

// LLMProvider turns a rendered prompt into the model's raw JSON answer.
// LLMSalaryEstimator is its only consumer.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a plain function to LLMProvider.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

func (f ProviderFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
