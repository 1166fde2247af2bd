package data

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"

	"gorm.io/gorm"
)

// MessageDO 消息数据对象。(conversation_id, position) 唯一索引
// 是消息顺序不变量的最后一道防线。
type MessageDO struct {
	ID                 string `gorm:"primaryKey"`
	ConversationID     string `gorm:"index;uniqueIndex:idx_conversation_position"`
	Position           int    `gorm:"uniqueIndex:idx_conversation_position"`
	Role               string
	Content            string `gorm:"type:text"`
	SourceChunkIDsJSON string `gorm:"type:text"`
	Tokens             int
	Model              string
	CreatedAt          time.Time
}

// TableName 指定表名
func (MessageDO) TableName() string {
	return "chat.messages"
}

// MessageRepository 消息仓储实现
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓储
func NewMessageRepository(db *gorm.DB) domain.MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage 创建消息。位置唯一索引冲突映射为 ErrPositionConflict。
func (r *MessageRepository) CreateMessage(ctx context.Context, message *domain.Message) error {
	do := r.toDataObject(message)
	if err := r.db.WithContext(ctx).Create(do).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return domain.ErrPositionConflict
		}
		return err
	}
	return nil
}

// GetRecentMessages 获取最近 limit 条消息，按位置升序返回
func (r *MessageRepository) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	var dos []MessageDO

	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("position DESC").
		Limit(limit).
		Find(&dos).Error; err != nil {
		return nil, err
	}

	// 反转为时间序（最新的在后面）
	messages := make([]*domain.Message, len(dos))
	for i, do := range dos {
		messages[len(dos)-1-i] = r.toDomain(&do)
	}

	return messages, nil
}

// ListMessages 按位置升序分页列出消息
func (r *MessageRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, int, error) {
	var dos []MessageDO
	var total int64

	db := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)

	if err := db.Model(&MessageDO{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("position ASC").Limit(limit).Offset(offset).Find(&dos).Error; err != nil {
		return nil, 0, err
	}

	messages := make([]*domain.Message, len(dos))
	for i, do := range dos {
		messages[i] = r.toDomain(&do)
	}

	return messages, int(total), nil
}

// GetMessagesInRange 获取位置区间 [startPos, endPos] 内的消息
func (r *MessageRepository) GetMessagesInRange(ctx context.Context, conversationID string, startPos, endPos int) ([]*domain.Message, error) {
	var dos []MessageDO

	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND position >= ? AND position <= ?", conversationID, startPos, endPos).
		Order("position ASC").
		Find(&dos).Error; err != nil {
		return nil, err
	}

	messages := make([]*domain.Message, len(dos))
	for i, do := range dos {
		messages[i] = r.toDomain(&do)
	}

	return messages, nil
}

// GetMaxPosition 获取对话内最大消息位置，无消息时返回 0
func (r *MessageRepository) GetMaxPosition(ctx context.Context, conversationID string) (int, error) {
	var maxPos *int
	if err := r.db.WithContext(ctx).
		Model(&MessageDO{}).
		Where("conversation_id = ?", conversationID).
		Select("MAX(position)").
		Scan(&maxPos).Error; err != nil {
		return 0, err
	}
	if maxPos == nil {
		return 0, nil
	}
	return *maxPos, nil
}

// isUniqueViolation 判断 postgres 唯一约束冲突
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SQLSTATE 23505")
}

// toDataObject 领域对象转数据对象
func (r *MessageRepository) toDataObject(m *domain.Message) *MessageDO {
	chunkIDs := ""
	if len(m.SourceChunkIDs) > 0 {
		if data, err := json.Marshal(m.SourceChunkIDs); err == nil {
			chunkIDs = string(data)
		}
	}
	return &MessageDO{
		ID:                 m.ID,
		ConversationID:     m.ConversationID,
		Position:           m.Position,
		Role:               string(m.Role),
		Content:            m.Content,
		SourceChunkIDsJSON: chunkIDs,
		Tokens:             m.Tokens,
		Model:              m.Model,
		CreatedAt:          m.CreatedAt,
	}
}

// toDomain 数据对象转领域对象
func (r *MessageRepository) toDomain(do *MessageDO) *domain.Message {
	var chunkIDs []string
	if do.SourceChunkIDsJSON != "" {
		_ = json.Unmarshal([]byte(do.SourceChunkIDsJSON), &chunkIDs)
	}
	return &domain.Message{
		ID:             do.ID,
		ConversationID: do.ConversationID,
		Position:       do.Position,
		Role:           domain.MessageRole(do.Role),
		Content:        do.Content,
		SourceChunkIDs: chunkIDs,
		Tokens:         do.Tokens,
		Model:          do.Model,
		CreatedAt:      do.CreatedAt,
	}
}
