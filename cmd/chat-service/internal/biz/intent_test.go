package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		expected domain.Intent
	}{
		{
			name:     "标准 JSON 闲聊",
			response: `{"intent": "normal_chat"}`,
			expected: domain.IntentNormalChat,
		},
		{
			name:     "标准 JSON 文档问答",
			response: `{"intent": "document_query"}`,
			expected: domain.IntentDocumentQuery,
		},
		{
			name:     "别名标签",
			response: `{"intent": "normal_message"}`,
			expected: domain.IntentNormalChat,
		},
		{
			name:     "代码块包裹",
			response: "```json\n{\"intent\": \"normal_chat\"}\n```",
			expected: domain.IntentNormalChat,
		},
		{
			name:     "裸标签",
			response: "document_query",
			expected: domain.IntentDocumentQuery,
		},
		{
			name:     "大小写混杂带空白",
			response: "  Normal_Chat  ",
			expected: domain.IntentNormalChat,
		},
		{
			name:     "无法解析兜底为文档问答",
			response: "I think this is a greeting",
			expected: domain.IntentDocumentQuery,
		},
		{
			name:     "空响应兜底为文档问答",
			response: "",
			expected: domain.IntentDocumentQuery,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			generator := &MockGenerator{
				CompleteFunc: func(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerateOptions) (*domain.GenerateResult, error) {
					return &domain.GenerateResult{Text: tc.response}, nil
				},
			}
			classifier := NewIntentClassifier(generator, time.Second, log.DefaultLogger)

			got := classifier.Classify(context.Background(), "some message", false)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestClassify_BackendFailureDefaultsToDocumentQuery(t *testing.T) {
	generator := &MockGenerator{
		CompleteFunc: func(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerateOptions) (*domain.GenerateResult, error) {
			return nil, errors.New("model gateway timeout")
		},
	}
	classifier := NewIntentClassifier(generator, time.Second, log.DefaultLogger)

	got := classifier.Classify(context.Background(), "hello", false)

	// 分类失败宁可多检索一次，也不能漏掉相关上下文
	assert.Equal(t, domain.IntentDocumentQuery, got)
}

func TestClassify_UsesLowTemperatureJSONMode(t *testing.T) {
	var captured domain.GenerateOptions
	generator := &MockGenerator{
		CompleteFunc: func(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerateOptions) (*domain.GenerateResult, error) {
			captured = opts
			return &domain.GenerateResult{Text: `{"intent": "normal_chat"}`}, nil
		},
	}
	classifier := NewIntentClassifier(generator, time.Second, log.DefaultLogger)

	classifier.Classify(context.Background(), "hello", false)

	assert.Equal(t, 0.0, captured.Temperature)
	assert.True(t, captured.JSONMode)
}

func TestParseIntent(t *testing.T) {
	testCases := []struct {
		label    string
		expected domain.Intent
		ok       bool
	}{
		{"normal_chat", domain.IntentNormalChat, true},
		{"chat", domain.IntentNormalChat, true},
		{"document_query", domain.IntentDocumentQuery, true},
		{"rag", domain.IntentDocumentQuery, true},
		{"DOCUMENT_QUESTION", domain.IntentDocumentQuery, true},
		{"banana", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			got, ok := domain.ParseIntent(tc.label)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}
