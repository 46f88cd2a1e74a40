package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"taxlaw-backend/llm"
	"taxlaw-backend/mocks"
	"taxlaw-backend/models"
	"taxlaw-backend/service"
)

var (
	_ service.ReturnRepository   = (*mocks.MockReturnRepository)(nil)
	_ service.DocumentRepository = (*mocks.MockDocumentRepository)(nil)
	_ llm.ChatClient             = (*mocks.MockChatClient)(nil)
	_ llm.Embedder               = (*mocks.MockEmbedder)(nil)
)

func TestMockReturnRepository_CreateWithAudit(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockReturnRepository(ctrl)

	taxReturn := &models.TaxReturn{TIN: "123"}
	audit := &models.AuditLog{EventType: models.EventGenerateReturn}
	repo.EXPECT().CreateWithAudit(gomock.Any(), taxReturn, audit).Return(errors.New("tx aborted"))

	err := repo.CreateWithAudit(context.Background(), taxReturn, audit)
	assert.EqualError(t, err, "tx aborted")
}
