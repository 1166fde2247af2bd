package domain

import "strings"

// Intent 用户消息的意图
type Intent string

const (
	IntentNormalChat    Intent = "normal_chat"    // 普通闲聊
	IntentDocumentQuery Intent = "document_query" // 文档问答（需要检索）
)

// ParseIntent 解析模型返回的意图标签。无法识别的标签返回 false，
// 由调用方决定兜底策略。
func ParseIntent(label string) (Intent, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "normal_chat", "normal_message", "chat":
		return IntentNormalChat, true
	case "document_query", "document_question", "rag":
		return IntentDocumentQuery, true
	default:
		return "", false
	}
}
