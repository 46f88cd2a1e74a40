package llm

import "context"

// DisabledAnswer is returned by DisabledChat in place of a model reply.
const DisabledAnswer = "LLM API key missing; cannot generate answer."

// DisabledChat is used when no chat provider is configured.
type DisabledChat struct{}

// Complete always returns DisabledAnswer.
func (DisabledChat) Complete(context.Context, ChatRequest) (string, error) {
	return DisabledAnswer, nil
}

// ZeroEmbedder returns all-zero vectors so ingestion still works without an
// embedding provider. Similarity search over them is meaningless.
type ZeroEmbedder struct {
	Dims int
}

// Dimensions implements Embedder.
func (z ZeroEmbedder) Dimensions() int { return z.Dims }

// Embed implements Embedder.
func (z ZeroEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, z.Dims)
	}
	return out, nil
}
