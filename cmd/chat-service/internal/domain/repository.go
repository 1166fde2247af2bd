package domain

import "context"

// ConversationRepository 对话仓储接口
type ConversationRepository interface {
	// CreateConversation 创建对话
	CreateConversation(ctx context.Context, conversation *Conversation) error

	// GetConversation 获取对话
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// UpdateConversation 更新对话
	UpdateConversation(ctx context.Context, conversation *Conversation) error

	// ListConversations 列出用户的对话
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]*Conversation, int, error)

	// DeleteConversation 删除对话，级联删除消息和摘要
	DeleteConversation(ctx context.Context, id string) error
}

// MessageRepository 消息仓储接口
type MessageRepository interface {
	// CreateMessage 创建消息。位置冲突返回 ErrPositionConflict。
	CreateMessage(ctx context.Context, message *Message) error

	// GetRecentMessages 获取最近的 limit 条消息，按位置升序返回
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)

	// ListMessages 按位置升序分页列出消息
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*Message, int, error)

	// GetMessagesInRange 获取位置区间 [startPos, endPos] 内的消息，按位置升序
	GetMessagesInRange(ctx context.Context, conversationID string, startPos, endPos int) ([]*Message, error)

	// GetMaxPosition 获取对话内最大消息位置，无消息时返回 0
	GetMaxPosition(ctx context.Context, conversationID string) (int, error)
}

// SummaryRepository 摘要仓储接口
type SummaryRepository interface {
	// CreateSummary 创建摘要
	CreateSummary(ctx context.Context, summary *Summary) error

	// ListSummaries 按创建时间升序列出对话的全部摘要
	ListSummaries(ctx context.Context, conversationID string) ([]*Summary, error)

	// GetLatestSummary 获取最新摘要，不存在时返回 nil
	GetLatestSummary(ctx context.Context, conversationID string) (*Summary, error)
}
