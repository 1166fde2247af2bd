package service

import (
	"context"
	"errors"

	"studyassistant/cmd/chat-service/internal/biz"
	"studyassistant/cmd/chat-service/internal/domain"
	pkgerrors "studyassistant/pkg/errors"
)

// ChatService 对外服务层：包装用例并把内部错误归类为
// 调用方可识别的错误族。
type ChatService struct {
	agent          *biz.ChatAgent
	conversationUc *biz.ConversationUsecase
}

// NewChatService 创建服务
func NewChatService(agent *biz.ChatAgent, conversationUc *biz.ConversationUsecase) *ChatService {
	return &ChatService{
		agent:          agent,
		conversationUc: conversationUc,
	}
}

// TurnReply 一轮对话的响应
type TurnReply struct {
	Response     string   `json:"response"`
	Intent       string   `json:"intent"`
	UsedChunkIDs []string `json:"used_chunk_ids"`
	MessageID    string   `json:"message_id"`
	TokensUsed   int      `json:"tokens_used,omitempty"`
}

// ProcessTurn 处理一轮对话
func (s *ChatService) ProcessTurn(ctx context.Context, conversationID, userID, message string, documentScope []string) (*TurnReply, error) {
	if message == "" {
		return nil, pkgerrors.NewBadRequest("EMPTY_MESSAGE", "message must not be empty")
	}

	result, err := s.agent.ProcessTurn(ctx, conversationID, userID, message, documentScope)
	if err != nil {
		return nil, classifyTurnError(err)
	}

	return &TurnReply{
		Response:     result.Response,
		Intent:       string(result.Intent),
		UsedChunkIDs: result.UsedChunkIDs,
		MessageID:    result.MessageID,
		TokensUsed:   result.Tokens,
	}, nil
}

// classifyTurnError 按错误族归类：校验类、瞬时提供方类、一致性类、存储类
func classifyTurnError(err error) error {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		return pkgerrors.ErrNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return pkgerrors.ErrForbidden
	case errors.Is(err, domain.ErrEmbeddingFailed), errors.Is(err, domain.ErrVectorSearchFailed):
		return pkgerrors.ErrRetrievalFailed
	case errors.Is(err, domain.ErrGenerationFailed):
		return pkgerrors.ErrGenerationFailed
	case errors.Is(err, domain.ErrPositionConflict), errors.Is(err, domain.ErrInvalidSummaryRange):
		return pkgerrors.ErrConsistency
	case errors.Is(err, context.Canceled):
		// 客户端在任何提供方调用之前或中途断开，不是服务端故障
		return pkgerrors.ErrClientClosed
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.ErrTimeout
	default:
		return pkgerrors.ErrStoreFailed
	}
}

// ConversationReply 对话信息
type ConversationReply struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

// CreateConversation 创建对话
func (s *ChatService) CreateConversation(ctx context.Context, userID string, documentIDs []string) (*ConversationReply, error) {
	conversation, err := s.conversationUc.CreateConversation(ctx, userID, documentIDs)
	if err != nil {
		return nil, classifyTurnError(err)
	}
	return toConversationReply(conversation), nil
}

// GetConversation 获取对话
func (s *ChatService) GetConversation(ctx context.Context, id, userID string) (*ConversationReply, error) {
	conversation, err := s.conversationUc.GetConversation(ctx, id, userID)
	if err != nil {
		return nil, classifyTurnError(err)
	}
	return toConversationReply(conversation), nil
}

// ListConversations 列出对话
func (s *ChatService) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*ConversationReply, int, error) {
	conversations, total, err := s.conversationUc.ListConversations(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, classifyTurnError(err)
	}
	replies := make([]*ConversationReply, len(conversations))
	for i, c := range conversations {
		replies[i] = toConversationReply(c)
	}
	return replies, total, nil
}

// MessageReply 消息信息
type MessageReply struct {
	ID             string   `json:"id"`
	Role           string   `json:"role"`
	Content        string   `json:"content"`
	Position       int      `json:"position"`
	SourceChunkIDs []string `json:"source_chunk_ids,omitempty"`
	CreatedAt      int64    `json:"created_at"`
}

// ListMessages 列出消息
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID string, limit, offset int) ([]*MessageReply, int, error) {
	messages, total, err := s.conversationUc.ListMessages(ctx, conversationID, userID, limit, offset)
	if err != nil {
		return nil, 0, classifyTurnError(err)
	}
	replies := make([]*MessageReply, len(messages))
	for i, m := range messages {
		replies[i] = &MessageReply{
			ID:             m.ID,
			Role:           string(m.Role),
			Content:        m.Content,
			Position:       m.Position,
			SourceChunkIDs: m.SourceChunkIDs,
			CreatedAt:      m.CreatedAt.Unix(),
		}
	}
	return replies, total, nil
}

// SummaryReply 摘要信息
type SummaryReply struct {
	ID            string `json:"id"`
	StartPosition int    `json:"start_position"`
	EndPosition   int    `json:"end_position"`
	Summary       string `json:"summary"`
	MessageCount  int    `json:"message_count"`
	CreatedAt     int64  `json:"created_at"`
}

// ListSummaries 列出对话的摘要记录
func (s *ChatService) ListSummaries(ctx context.Context, conversationID, userID string) ([]*SummaryReply, error) {
	summaries, err := s.conversationUc.ListSummaries(ctx, conversationID, userID)
	if err != nil {
		return nil, classifyTurnError(err)
	}
	replies := make([]*SummaryReply, len(summaries))
	for i, sum := range summaries {
		replies[i] = &SummaryReply{
			ID:            sum.ID,
			StartPosition: sum.StartPosition,
			EndPosition:   sum.EndPosition,
			Summary:       sum.Summary,
			MessageCount:  sum.MessageCount,
			CreatedAt:     sum.CreatedAt.Unix(),
		}
	}
	return replies, nil
}

// DeleteConversation 删除对话
func (s *ChatService) DeleteConversation(ctx context.Context, id, userID string) error {
	if err := s.conversationUc.DeleteConversation(ctx, id, userID); err != nil {
		return classifyTurnError(err)
	}
	return nil
}

func toConversationReply(c *domain.Conversation) *ConversationReply {
	return &ConversationReply{
		ID:          c.ID,
		Title:       c.Title,
		DocumentIDs: c.DocumentIDs,
		CreatedAt:   c.CreatedAt.Unix(),
		UpdatedAt:   c.UpdatedAt.Unix(),
	}
}
