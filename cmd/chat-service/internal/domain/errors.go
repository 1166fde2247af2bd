package domain

import "errors"

var (
	// ErrConversationNotFound 对话未找到
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound 消息未找到
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnauthorized 未授权访问他人对话
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPositionConflict 消息位置冲突（并发写入破坏了顺序不变量）
	ErrPositionConflict = errors.New("message position conflict")

	// ErrInvalidSummaryRange 摘要区间非法
	ErrInvalidSummaryRange = errors.New("invalid summary range")

	// ErrEmbeddingFailed 查询向量化失败
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrVectorSearchFailed 向量检索后端不可用
	ErrVectorSearchFailed = errors.New("vector search failed")

	// ErrGenerationFailed 模型生成失败
	ErrGenerationFailed = errors.New("generation failed")
)
