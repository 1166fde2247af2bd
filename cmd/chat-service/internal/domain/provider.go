package domain

import (
	"context"
	"time"
)

// EmbeddingProvider 文本向量化能力
type EmbeddingProvider interface {
	// Embed 将文本编码为固定维度向量
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerateOptions 单次生成调用的参数
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool
	Timeout     time.Duration
}

// GenerateResult 生成结果
type GenerateResult struct {
	Text   string
	Tokens int
	Model  string
}

// GenerationProvider 文本生成能力
type GenerationProvider interface {
	// Complete 根据 system/user 提示词生成补全
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (*GenerateResult, error)
}

// VectorIndex 向量检索能力
type VectorIndex interface {
	// Search 余弦相似度检索。documentIDs 为空表示不过滤文档，
	// 返回按相似度降序排列的至多 topK 条结果。
	Search(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*RetrievedChunk, error)
}
