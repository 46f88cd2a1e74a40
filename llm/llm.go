// Package llm wraps the chat and embedding providers behind two small
// interfaces so services never depend on a vendor SDK.
package llm

import (
	"context"
	"errors"
)

// Message roles accepted by ChatClient implementations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrUnsupportedRole = errors.New("unsupported message role")
	ErrNoMessages      = errors.New("no messages to send")
	ErrEmptyResponse   = errors.New("model returned no content")
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a provider-neutral completion request.
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// ChatClient produces a single assistant reply for a conversation.
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Embedder turns texts into vectors of a fixed dimension. The result has one
// vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// ValidRole reports whether role may appear in a ChatRequest.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
