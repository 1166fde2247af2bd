package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message 消息实体。一经创建不可修改。
type Message struct {
	ID             string
	ConversationID string
	Role           MessageRole
	Content        string
	Position       int // 对话内单调递增的位置，从 1 开始，无空洞
	SourceChunkIDs []string
	Tokens         int
	Model          string
	CreatedAt      time.Time
}

// MessageRole 消息角色
type MessageRole string

const (
	RoleUser      MessageRole = "user"      // 用户
	RoleAssistant MessageRole = "assistant" // 助手
)

// NewUserMessage 创建用户消息
func NewUserMessage(conversationID, content string, position int) *Message {
	return &Message{
		ID:             "msg_" + uuid.NewString(),
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        content,
		Position:       position,
		CreatedAt:      time.Now(),
	}
}

// NewAssistantMessage 创建助手消息。sourceChunkIDs 仅在文档问答分支有值。
func NewAssistantMessage(conversationID, content string, position int, sourceChunkIDs []string) *Message {
	return &Message{
		ID:             "msg_" + uuid.NewString(),
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        content,
		Position:       position,
		SourceChunkIDs: sourceChunkIDs,
		CreatedAt:      time.Now(),
	}
}

// SetUsage 设置 Token 用量和模型信息
func (m *Message) SetUsage(tokens int, model string) {
	m.Tokens = tokens
	m.Model = model
}
