package domain

import (
	"time"

	"github.com/google/uuid"
)

// Summary 对话摘要。覆盖 [StartPosition, EndPosition] 的连续消息段，
// 同一对话的摘要区间互不重叠，按创建时间追加。
type Summary struct {
	ID             string
	ConversationID string
	StartPosition  int
	EndPosition    int
	Summary        string
	MessageCount   int
	CreatedAt      time.Time
}

// NewSummary 创建摘要
func NewSummary(conversationID string, startPos, endPos int, text string) (*Summary, error) {
	if startPos < 1 || endPos < startPos {
		return nil, ErrInvalidSummaryRange
	}
	return &Summary{
		ID:             "sum_" + uuid.NewString(),
		ConversationID: conversationID,
		StartPosition:  startPos,
		EndPosition:    endPos,
		Summary:        text,
		MessageCount:   endPos - startPos + 1,
		CreatedAt:      time.Now(),
	}, nil
}

// Covers 检查位置是否落在摘要区间内
func (s *Summary) Covers(position int) bool {
	return position >= s.StartPosition && position <= s.EndPosition
}

// Overlaps 检查与另一个摘要区间是否重叠
func (s *Summary) Overlaps(other *Summary) bool {
	return s.StartPosition <= other.EndPosition && other.StartPosition <= s.EndPosition
}

// Validate 校验计数不变量：MessageCount == EndPosition - StartPosition + 1
func (s *Summary) Validate() error {
	if s.StartPosition < 1 || s.EndPosition < s.StartPosition {
		return ErrInvalidSummaryRange
	}
	if s.MessageCount != s.EndPosition-s.StartPosition+1 {
		return ErrInvalidSummaryRange
	}
	return nil
}
