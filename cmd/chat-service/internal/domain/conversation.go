package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle 新对话的默认标题（首次摘要时会生成正式标题）
const DefaultTitle = "New Conversation"

// Conversation 对话聚合根
type Conversation struct {
	ID          string
	UserID      string
	Title       string
	DocumentIDs []string // 关联的文档范围，为空表示检索用户全部文档
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewConversation 创建对话
func NewConversation(userID string, documentIDs []string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:          "conv_" + uuid.NewString(),
		UserID:      userID,
		Title:       DefaultTitle,
		DocumentIDs: documentIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UpdateTitle 更新标题
func (c *Conversation) UpdateTitle(title string) {
	if len(title) > 255 {
		title = title[:255]
	}
	c.Title = title
	c.UpdatedAt = time.Now()
}

// NeedsTitle 是否还未生成正式标题
func (c *Conversation) NeedsTitle() bool {
	return c.Title == "" || c.Title == DefaultTitle
}

// UpdateActivity 更新活跃时间
func (c *Conversation) UpdateActivity() {
	c.UpdatedAt = time.Now()
}

// OwnedBy 检查归属
func (c *Conversation) OwnedBy(userID string) bool {
	return c.UserID == userID
}
