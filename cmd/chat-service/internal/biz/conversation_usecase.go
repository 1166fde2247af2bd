package biz

import (
	"context"
	"fmt"

	"studyassistant/cmd/chat-service/internal/domain"
)

// ConversationUsecase 对话生命周期用例
type ConversationUsecase struct {
	conversationRepo domain.ConversationRepository
	messageRepo      domain.MessageRepository
	summaryRepo      domain.SummaryRepository
}

// NewConversationUsecase 创建对话用例
func NewConversationUsecase(
	conversationRepo domain.ConversationRepository,
	messageRepo domain.MessageRepository,
	summaryRepo domain.SummaryRepository,
) *ConversationUsecase {
	return &ConversationUsecase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		summaryRepo:      summaryRepo,
	}
}

// CreateConversation 创建对话，可选指定文档检索范围
func (uc *ConversationUsecase) CreateConversation(ctx context.Context, userID string, documentIDs []string) (*domain.Conversation, error) {
	conversation := domain.NewConversation(userID, documentIDs)
	if err := uc.conversationRepo.CreateConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversation, nil
}

// GetConversation 获取对话并做归属检查
func (uc *ConversationUsecase) GetConversation(ctx context.Context, id, userID string) (*domain.Conversation, error) {
	conversation, err := uc.conversationRepo.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conversation.OwnedBy(userID) {
		return nil, domain.ErrUnauthorized
	}
	return conversation, nil
}

// ListConversations 列出用户的对话
func (uc *ConversationUsecase) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, int, error) {
	return uc.conversationRepo.ListConversations(ctx, userID, limit, offset)
}

// ListMessages 按位置升序分页列出对话消息
func (uc *ConversationUsecase) ListMessages(ctx context.Context, conversationID, userID string, limit, offset int) ([]*domain.Message, int, error) {
	if _, err := uc.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, 0, err
	}
	return uc.messageRepo.ListMessages(ctx, conversationID, limit, offset)
}

// ListSummaries 列出对话的摘要记录
func (uc *ConversationUsecase) ListSummaries(ctx context.Context, conversationID, userID string) ([]*domain.Summary, error) {
	if _, err := uc.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return uc.summaryRepo.ListSummaries(ctx, conversationID)
}

// DeleteConversation 删除对话，级联删除其消息和摘要
func (uc *ConversationUsecase) DeleteConversation(ctx context.Context, id, userID string) error {
	if _, err := uc.GetConversation(ctx, id, userID); err != nil {
		return err
	}
	return uc.conversationRepo.DeleteConversation(ctx, id)
}
