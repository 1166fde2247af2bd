package data

import (
	"context"
	"errors"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"

	"gorm.io/gorm"
)

// SummaryDO 摘要数据对象。(conversation_id, start_position) 唯一索引
// 保证并发提交时同一窗口至多落库一次，事务内的重叠检查在
// READ COMMITTED 下看不到未提交的并发写入，不能独自承担这个约束。
type SummaryDO struct {
	ID             string `gorm:"primaryKey"`
	ConversationID string `gorm:"index;uniqueIndex:idx_conversation_summary_start"`
	StartPosition  int    `gorm:"uniqueIndex:idx_conversation_summary_start"`
	EndPosition    int
	Summary        string `gorm:"type:text"`
	MessageCount   int
	CreatedAt      time.Time
}

// TableName 指定表名
func (SummaryDO) TableName() string {
	return "chat.summaries"
}

// SummaryRepository 摘要仓储实现
type SummaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository 创建摘要仓储
func NewSummaryRepository(db *gorm.DB) domain.SummaryRepository {
	return &SummaryRepository{db: db}
}

// CreateSummary 创建摘要。写入前校验计数不变量，并拒绝与已有摘要
// 区间重叠的记录，重叠视为一致性错误。
func (r *SummaryRepository) CreateSummary(ctx context.Context, summary *domain.Summary) error {
	if err := summary.Validate(); err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overlapping int64
		if err := tx.Model(&SummaryDO{}).
			Where("conversation_id = ? AND start_position <= ? AND end_position >= ?",
				summary.ConversationID, summary.EndPosition, summary.StartPosition).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return domain.ErrInvalidSummaryRange
		}
		if err := tx.Create(r.toDataObject(summary)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
				return domain.ErrInvalidSummaryRange
			}
			return err
		}
		return nil
	})
}

// ListSummaries 按创建时间升序列出对话的全部摘要
func (r *SummaryRepository) ListSummaries(ctx context.Context, conversationID string) ([]*domain.Summary, error) {
	var dos []SummaryDO

	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&dos).Error; err != nil {
		return nil, err
	}

	summaries := make([]*domain.Summary, len(dos))
	for i, do := range dos {
		summaries[i] = r.toDomain(&do)
	}

	return summaries, nil
}

// GetLatestSummary 获取最新摘要，不存在时返回 nil
func (r *SummaryRepository) GetLatestSummary(ctx context.Context, conversationID string) (*domain.Summary, error) {
	var do SummaryDO
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&do).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&do), nil
}

// toDataObject 领域对象转数据对象
func (r *SummaryRepository) toDataObject(s *domain.Summary) *SummaryDO {
	return &SummaryDO{
		ID:             s.ID,
		ConversationID: s.ConversationID,
		StartPosition:  s.StartPosition,
		EndPosition:    s.EndPosition,
		Summary:        s.Summary,
		MessageCount:   s.MessageCount,
		CreatedAt:      s.CreatedAt,
	}
}

// toDomain 数据对象转领域对象
func (r *SummaryRepository) toDomain(do *SummaryDO) *domain.Summary {
	return &domain.Summary{
		ID:             do.ID,
		ConversationID: do.ConversationID,
		StartPosition:  do.StartPosition,
		EndPosition:    do.EndPosition,
		Summary:        do.Summary,
		MessageCount:   do.MessageCount,
		CreatedAt:      do.CreatedAt,
	}
}
