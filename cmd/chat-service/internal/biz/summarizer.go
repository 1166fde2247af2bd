package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// SummaryCandidate 摘要生成结果。Title 仅在需要生成标题时非空。
type SummaryCandidate struct {
	Summary string
	Title   string
}

// Summarizer 对话摘要器：把一个摘要窗口的消息压缩为持久化的记忆。
type Summarizer struct {
	generator domain.GenerationProvider
	timeout   time.Duration
	log       *log.Helper
}

// NewSummarizer 创建摘要器
func NewSummarizer(generator domain.GenerationProvider, timeout time.Duration, logger log.Logger) *Summarizer {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Summarizer{
		generator: generator,
		timeout:   timeout,
		log:       log.NewHelper(logger),
	}
}

// Summarize 生成窗口消息的摘要。previousSummary 非空时做滚动合并；
// needsTitle 为 true 时同一次调用顺带生成对话标题。
func (s *Summarizer) Summarize(
	ctx context.Context,
	window []*domain.Message,
	previousSummary string,
	needsTitle bool,
) (*SummaryCandidate, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("empty summarization window")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	transcript := formatTranscript(window)

	var userPrompt string
	switch {
	case previousSummary != "":
		userPrompt = fmt.Sprintf(rollingSummaryUserPromptTemplate, previousSummary, transcript)
	case needsTitle:
		userPrompt = fmt.Sprintf(titledSummaryUserPromptTemplate, transcript)
	default:
		userPrompt = fmt.Sprintf(summaryUserPromptTemplate, transcript)
	}

	result, err := s.generator.Complete(ctx, summarySystemPrompt, userPrompt, domain.GenerateOptions{
		Temperature: 0.5,
		MaxTokens:   500,
		JSONMode:    true,
		Timeout:     s.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	var parsed struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(result.Text)), &parsed); err != nil {
		return nil, fmt.Errorf("parse summary response: %w", err)
	}
	if parsed.Summary == "" {
		return nil, fmt.Errorf("summary response missing summary field")
	}

	s.log.WithContext(ctx).Infof("summarized %d messages (title generated: %v)", len(window), parsed.Title != "")

	return &SummaryCandidate{
		Summary: strings.TrimSpace(parsed.Summary),
		Title:   strings.TrimSpace(parsed.Title),
	}, nil
}

// formatTranscript 将消息窗口格式化为摘要提示词的文本段
func formatTranscript(messages []*domain.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		role := "Assistant"
		if msg.Role == domain.RoleUser {
			role = "Student"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", role, msg.Content))
	}
	return strings.Join(parts, "\n\n")
}
