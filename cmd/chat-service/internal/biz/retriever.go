package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"
	"studyassistant/pkg/monitoring"

	"github.com/go-kratos/kratos/v2/log"
)

// ChunkCache 检索结果的读穿缓存，可选依赖，缺失不影响正确性
type ChunkCache interface {
	Get(ctx context.Context, query string, documentIDs []string) ([]*domain.RetrievedChunk, bool)
	Set(ctx context.Context, query string, documentIDs []string, chunks []*domain.RetrievedChunk)
}

// RetrieverConfig 检索配置
type RetrieverConfig struct {
	TopK      int     // 返回片段数上限
	Threshold float64 // 最低相似度阈值
	Timeout   time.Duration
}

// DefaultRetrieverConfig 默认检索配置
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:      8,
		Threshold: 0.1,
		Timeout:   10 * time.Second,
	}
}

// Retriever 文档片段检索器：查询向量化 + 向量索引相似度检索
type Retriever struct {
	embedder domain.EmbeddingProvider
	index    domain.VectorIndex
	cache    ChunkCache
	config   RetrieverConfig
	log      *log.Helper
}

// NewRetriever 创建检索器。cache 可以为 nil。
func NewRetriever(
	embedder domain.EmbeddingProvider,
	index domain.VectorIndex,
	cache ChunkCache,
	config RetrieverConfig,
	logger log.Logger,
) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		cache:    cache,
		config:   config,
		log:      log.NewHelper(logger),
	}
}

// Retrieve 检索与查询相关的文档片段，按相似度降序返回，
// 低于阈值的片段被过滤。空结果是合法返回，与错误严格区分：
// 向量化失败包装 ErrEmbeddingFailed，索引不可用包装 ErrVectorSearchFailed。
// 只读操作，不在此层重试。
func (r *Retriever) Retrieve(ctx context.Context, query string, documentIDs []string) ([]*domain.RetrievedChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	// 1. 缓存命中直接返回
	if r.cache != nil {
		if chunks, ok := r.cache.Get(ctx, query, documentIDs); ok {
			r.log.WithContext(ctx).Debugf("retrieval cache hit: query=%.40q", query)
			return chunks, nil
		}
	}

	// 2. 查询向量化
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Join(domain.ErrEmbeddingFailed, err)
	}

	// 3. 向量检索
	start := time.Now()
	results, err := r.index.Search(ctx, vector, documentIDs, r.config.TopK)
	if err != nil {
		return nil, errors.Join(domain.ErrVectorSearchFailed, err)
	}
	monitoring.VectorSearchDuration.WithLabelValues("milvus").Observe(time.Since(start).Seconds())

	// 4. 阈值过滤。索引返回的结果已按分数降序排列。
	chunks := make([]*domain.RetrievedChunk, 0, len(results))
	for _, chunk := range results {
		if chunk.Score >= r.config.Threshold {
			chunks = append(chunks, chunk)
		}
	}

	monitoring.RetrievedChunks.Observe(float64(len(chunks)))
	r.log.WithContext(ctx).Infof("retrieved %d relevant chunks (threshold: %.2f)", len(chunks), r.config.Threshold)

	// 5. 回填缓存
	if r.cache != nil {
		r.cache.Set(ctx, query, documentIDs, chunks)
	}

	return chunks, nil
}

// BuildContext 将检索结果拼装为提示词里的上下文块
func BuildContext(chunks []*domain.RetrievedChunk) string {
	var sb strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[Excerpt %d] (Similarity: %.2f)\n%s", i+1, chunk.Score, chunk.Text))
	}
	return sb.String()
}
