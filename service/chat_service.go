package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"taxlaw-backend/llm"
	"taxlaw-backend/middleware"
	"taxlaw-backend/vectorindex"
)

// Retriever finds indexed chunks relevant to a question. DocumentService
// implements it.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]vectorindex.Match, error)
}

// ChatService answers tax-law questions with the configured chat model
type ChatService struct {
	chat           llm.ChatClient
	retriever      Retriever
	systemPrompt   string
	lawTemperature float64
	maxTokens      int
	contextTopK    int
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// WithChatClient sets the chat model client
func WithChatClient(c llm.ChatClient) ChatServiceOption {
	return func(s *ChatService) {
		s.chat = c
	}
}

// WithRetriever enables retrieval of topK chunks per question. topK 0
// disables retrieval.
func WithRetriever(r Retriever, topK int) ChatServiceOption {
	return func(s *ChatService) {
		s.retriever = r
		s.contextTopK = topK
	}
}

// WithSystemPrompt replaces the persona prompt
func WithSystemPrompt(prompt string) ChatServiceOption {
	return func(s *ChatService) {
		s.systemPrompt = prompt
	}
}

// WithGenerationDefaults sets the default temperature and the token cap
func WithGenerationDefaults(lawTemperature float64, maxTokens int) ChatServiceOption {
	return func(s *ChatService) {
		s.lawTemperature = lawTemperature
		s.maxTokens = maxTokens
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{
		chat:           llm.DisabledChat{},
		lawTemperature: 0.35,
		maxTokens:      1200,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChatRequest is a conversation from the client. A nil Temperature uses the
// law-interpretation default.
type ChatRequest struct {
	Messages    []llm.Message
	Temperature *float64
}

// ChatResult is the assistant reply.
type ChatResult struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
	Sources   []string `json:"sources"`
}

func (req ChatRequest) validate() error {
	if len(req.Messages) == 0 {
		return ErrEmptyConversation
	}
	for i, m := range req.Messages {
		if !llm.ValidRole(m.Role) {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidMessage, i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("%w: message %d is empty", ErrInvalidMessage, i)
		}
	}
	if t := req.Temperature; t != nil && (*t < 0 || *t > 2) {
		return ErrInvalidTemperature
	}
	return nil
}

// Chat sends the persona prompt, any retrieved context and the conversation
// to the model and extracts citations from the answer.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	log := middleware.LogWithCorrelationID(ctx)

	messages := make([]llm.Message, 0, len(req.Messages)+2)
	if s.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt})
	}

	sources := []string{}
	if s.retriever != nil && s.contextTopK > 0 {
		if question := lastUserMessage(req.Messages); question != "" {
			matches, err := s.retriever.Search(ctx, question, s.contextTopK)
			switch {
			case err != nil:
				log.Warn("Context retrieval failed; answering without it", zap.Error(err))
			case len(matches) > 0:
				messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: contextMessage(matches)})
				sources = Sources(matches)
			}
		}
	}
	messages = append(messages, req.Messages...)

	temperature := s.lawTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	answer, err := s.chat.Complete(ctx, llm.ChatRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	log.Info("Chat answered",
		zap.Int("messages", len(req.Messages)),
		zap.Int("context_sources", len(sources)),
		zap.Float64("temperature", temperature),
	)

	return &ChatResult{
		Answer:    answer,
		Citations: ExtractCitations(answer),
		Sources:   sources,
	}, nil
}

func lastUserMessage(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func contextMessage(matches []vectorindex.Match) string {
	var sb strings.Builder
	sb.WriteString("Relevant excerpts from indexed documents. Cite them only if they support the answer.\n")
	for i, m := range matches {
		fmt.Fprintf(&sb, "\n[%d] %s (chunk %d)\n%s\n", i+1, m.Source, m.ChunkIndex, m.Content)
	}
	return sb.String()
}
