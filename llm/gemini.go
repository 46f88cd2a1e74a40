package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbeddingDimensions is the output size of text-embedding-004.
const GeminiEmbeddingDimensions = 768

// NewGeminiClient opens a genai client for apiKey. The caller closes it.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// GeminiChat implements ChatClient with a Gemini generative model.
type GeminiChat struct {
	client *genai.Client
	model  string
}

// NewGeminiChat uses client for model.
func NewGeminiChat(client *genai.Client, model string) *GeminiChat {
	return &GeminiChat{client: client, model: model}
}

// splitGeminiConversation moves system messages into one instruction, maps
// roles onto Gemini's user/model pair and separates the final user turn.
func splitGeminiConversation(messages []Message) (system string, history []*genai.Content, last string, err error) {
	var systemParts []string
	var turns []Message
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			systemParts = append(systemParts, m.Content)
		case RoleUser, RoleAssistant:
			turns = append(turns, m)
		default:
			return "", nil, "", fmt.Errorf("%w: %s", ErrUnsupportedRole, m.Role)
		}
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != RoleUser {
		return "", nil, "", fmt.Errorf("%w: conversation must end with a user message", ErrNoMessages)
	}

	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return strings.Join(systemParts, "\n\n"), history, turns[len(turns)-1].Content, nil
}

// Complete implements ChatClient.
func (c *GeminiChat) Complete(ctx context.Context, req ChatRequest) (string, error) {
	system, history, last, err := splitGeminiConversation(req.Messages)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	resp, err := withRetry(ctx, "gemini.chat", alwaysRetry, func() (*genai.GenerateContentResponse, error) {
		cs := model.StartChat()
		cs.History = history
		return cs.SendMessage(ctx, genai.Text(last))
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// GeminiEmbedder implements Embedder with a Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder uses client for model.
func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

// Dimensions implements Embedder.
func (e *GeminiEmbedder) Dimensions() int { return GeminiEmbeddingDimensions }

// Embed implements Embedder using one batch request.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := withRetry(ctx, "gemini.embed", alwaysRetry, func() (*genai.BatchEmbedContentsResponse, error) {
		return em.BatchEmbedContents(ctx, batch)
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding request returned %d vectors for %d inputs", len(res.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, emb := range res.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
