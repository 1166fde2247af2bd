package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"

	"gorm.io/gorm"
)

// ConversationDO 对话数据对象
type ConversationDO struct {
	ID              string `gorm:"primaryKey"`
	UserID          string `gorm:"index"`
	Title           string
	DocumentIDsJSON string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName 指定表名
func (ConversationDO) TableName() string {
	return "chat.conversations"
}

// ConversationRepository 对话仓储实现
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建对话仓储
func NewConversationRepository(db *gorm.DB) domain.ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateConversation 创建对话
func (r *ConversationRepository) CreateConversation(ctx context.Context, conversation *domain.Conversation) error {
	do := r.toDataObject(conversation)
	return r.db.WithContext(ctx).Create(do).Error
}

// GetConversation 获取对话
func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var do ConversationDO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&do).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return r.toDomain(&do), nil
}

// UpdateConversation 更新对话
func (r *ConversationRepository) UpdateConversation(ctx context.Context, conversation *domain.Conversation) error {
	do := r.toDataObject(conversation)
	return r.db.WithContext(ctx).Save(do).Error
}

// ListConversations 按最近活跃倒序列出用户的对话
func (r *ConversationRepository) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, int, error) {
	var dos []ConversationDO
	var total int64

	db := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if err := db.Model(&ConversationDO{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&dos).Error; err != nil {
		return nil, 0, err
	}

	conversations := make([]*domain.Conversation, len(dos))
	for i, do := range dos {
		conversations[i] = r.toDomain(&do)
	}

	return conversations, int(total), nil
}

// DeleteConversation 删除对话并级联删除其消息和摘要
func (r *ConversationRepository) DeleteConversation(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&MessageDO{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&SummaryDO{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&ConversationDO{}).Error
	})
}

// toDataObject 领域对象转数据对象
func (r *ConversationRepository) toDataObject(c *domain.Conversation) *ConversationDO {
	documentIDs := "[]"
	if len(c.DocumentIDs) > 0 {
		if data, err := json.Marshal(c.DocumentIDs); err == nil {
			documentIDs = string(data)
		}
	}
	return &ConversationDO{
		ID:              c.ID,
		UserID:          c.UserID,
		Title:           c.Title,
		DocumentIDsJSON: documentIDs,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// toDomain 数据对象转领域对象
func (r *ConversationRepository) toDomain(do *ConversationDO) *domain.Conversation {
	var documentIDs []string
	if do.DocumentIDsJSON != "" {
		_ = json.Unmarshal([]byte(do.DocumentIDsJSON), &documentIDs)
	}
	return &domain.Conversation{
		ID:          do.ID,
		UserID:      do.UserID,
		Title:       do.Title,
		DocumentIDs: documentIDs,
		CreatedAt:   do.CreatedAt,
		UpdatedAt:   do.UpdatedAt,
	}
}
