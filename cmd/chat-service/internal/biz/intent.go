package biz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"
	"studyassistant/pkg/monitoring"

	"github.com/go-kratos/kratos/v2/log"
)

// IntentClassifier 意图分类器：单次低温度 JSON 模式生成调用，
// 将用户消息标记为闲聊或文档问答。
type IntentClassifier struct {
	generator domain.GenerationProvider
	timeout   time.Duration
	log       *log.Helper
}

// NewIntentClassifier 创建意图分类器
func NewIntentClassifier(generator domain.GenerationProvider, timeout time.Duration, logger log.Logger) *IntentClassifier {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &IntentClassifier{
		generator: generator,
		timeout:   timeout,
		log:       log.NewHelper(logger),
	}
}

// Classify 识别消息意图。调用失败、超时或标签无法解析时一律兜底为
// 文档问答：多做一次检索的代价远低于漏掉相关上下文。
func (c *IntentClassifier) Classify(ctx context.Context, message string, hasPriorHistory bool) domain.Intent {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(intentUserPromptTemplate, message)
	if hasPriorHistory {
		userPrompt = "The user has an ongoing conversation.\n\n" + userPrompt
	}

	result, err := c.generator.Complete(ctx, intentSystemPrompt, userPrompt, domain.GenerateOptions{
		Temperature: 0.0,
		MaxTokens:   50,
		JSONMode:    true,
		Timeout:     c.timeout,
	})
	if err != nil {
		c.log.WithContext(ctx).Warnf("intent classification failed, defaulting to document_query: %v", err)
		monitoring.IntentFallbacks.Inc()
		return domain.IntentDocumentQuery
	}

	intent, ok := c.parseResponse(result.Text)
	if !ok {
		c.log.WithContext(ctx).Warnf("unparseable intent label %q, defaulting to document_query", result.Text)
		monitoring.IntentFallbacks.Inc()
		return domain.IntentDocumentQuery
	}

	monitoring.IntentTotal.WithLabelValues(string(intent)).Inc()
	c.log.WithContext(ctx).Debugf("intent classified: %s", intent)
	return intent
}

// parseResponse 解析模型输出。严格解析 JSON，失败后尝试裸标签。
func (c *IntentClassifier) parseResponse(response string) (domain.Intent, bool) {
	response = stripCodeFence(response)

	var result struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(response), &result); err == nil && result.Intent != "" {
		return domain.ParseIntent(result.Intent)
	}

	// 个别模型在 JSON 模式下仍可能只回标签本身
	return domain.ParseIntent(response)
}

// stripCodeFence 清理模型输出外层的 markdown 代码块标记
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
