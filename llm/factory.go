package llm

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"taxlaw-backend/config"
	"taxlaw-backend/logger"
)

// Clients bundles the chat and embedding clients chosen from settings.
type Clients struct {
	Chat     ChatClient
	Embedder Embedder
	Provider string

	gemini *genai.Client
}

// New builds clients for the configured provider. A missing API key is not
// an error: DisabledChat and ZeroEmbedder are used instead so the service
// still ingests documents and computes returns.
func New(ctx context.Context, s *config.Settings) (*Clients, error) {
	c := &Clients{Provider: s.LLMProvider}

	switch s.LLMProvider {
	case "gemini":
		if s.GeminiAPIKey == "" {
			break
		}
		client, err := NewGeminiClient(ctx, s.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		c.gemini = client
		c.Chat = NewGeminiChat(client, s.GeminiModel)
		c.Embedder = NewGeminiEmbedder(client, s.GeminiEmbeddingModel)
	default:
		if s.OpenAIAPIKey == "" && s.OpenAIBaseURL == "" {
			break
		}
		c.Chat = NewOpenAIChat(s.OpenAIBaseURL, s.OpenAIAPIKey, s.ModelName)
		c.Embedder = NewOpenAIEmbedder(s.OpenAIBaseURL, s.OpenAIAPIKey, s.EmbeddingModel, s.EmbeddingDimensions)
	}

	if c.Chat == nil {
		logger.Log.Warn("no LLM API key configured; chat is disabled and embeddings are zero vectors",
			zap.String("provider", s.LLMProvider))
		c.Provider = "disabled"
		c.Chat = DisabledChat{}
		c.Embedder = ZeroEmbedder{Dims: s.EmbeddingDimensions}
		return c, nil
	}

	if s.EmbedCacheTTL > 0 {
		c.Embedder = NewCachedEmbedder(c.Embedder, c.Provider+":"+embeddingModel(s), s.EmbedCacheTTL)
	}
	return c, nil
}

func embeddingModel(s *config.Settings) string {
	if s.LLMProvider == "gemini" {
		return s.GeminiEmbeddingModel
	}
	return s.EmbeddingModel
}

// Close releases provider connections.
func (c *Clients) Close() error {
	if c.gemini != nil {
		return c.gemini.Close()
	}
	return nil
}
