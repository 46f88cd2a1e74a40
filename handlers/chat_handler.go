package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taxlaw-backend/llm"
	"taxlaw-backend/middleware"
	"taxlaw-backend/service"
)

// ChatHandler handles the assistant endpoint
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequestBody is the body of POST /api/chat
type ChatRequestBody struct {
	Messages    []llm.Message `json:"messages" binding:"required"`
	Temperature *float64      `json:"temperature"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), service.ChatRequest{
		Messages:    req.Messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyConversation),
			errors.Is(err, service.ErrInvalidMessage),
			errors.Is(err, service.ErrInvalidTemperature):
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		default:
			middleware.LogWithCorrelationID(c.Request.Context()).Error("Chat failed", zap.Error(err))
			respondError(c, http.StatusBadGateway, CodeChatFailed, "The assistant could not answer right now")
		}
		return
	}

	respondData(c, http.StatusOK, result)
}
