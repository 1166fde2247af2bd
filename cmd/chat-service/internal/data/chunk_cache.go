package data

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"
	"studyassistant/pkg/cache"
	"studyassistant/pkg/monitoring"

	"github.com/go-kratos/kratos/v2/log"
)

// ChunkCache 检索结果的 Redis 读穿缓存。只是加速层，
// 任何缓存故障都降级为未命中，不影响检索正确性。
type ChunkCache struct {
	cache cache.Cache
	ttl   time.Duration
	log   *log.Helper
}

// NewChunkCache 创建检索缓存
func NewChunkCache(c cache.Cache, ttl time.Duration, logger log.Logger) *ChunkCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &ChunkCache{
		cache: c,
		ttl:   ttl,
		log:   log.NewHelper(logger),
	}
}

// Get 查询缓存
func (c *ChunkCache) Get(ctx context.Context, query string, documentIDs []string) ([]*domain.RetrievedChunk, bool) {
	data, err := c.cache.GetBytes(ctx, c.makeKey(query, documentIDs))
	if err != nil {
		if !cache.IsMiss(err) {
			c.log.WithContext(ctx).Warnf("chunk cache get: %v", err)
		}
		monitoring.ChunkCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	var chunks []*domain.RetrievedChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		c.log.WithContext(ctx).Warnf("chunk cache decode: %v", err)
		monitoring.ChunkCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	monitoring.ChunkCacheHits.WithLabelValues("hit").Inc()
	return chunks, true
}

// Set 写入缓存，失败仅记录日志
func (c *ChunkCache) Set(ctx context.Context, query string, documentIDs []string, chunks []*domain.RetrievedChunk) {
	data, err := json.Marshal(chunks)
	if err != nil {
		return
	}
	if err := c.cache.SetBytes(ctx, c.makeKey(query, documentIDs), data, c.ttl); err != nil {
		c.log.WithContext(ctx).Warnf("chunk cache set: %v", err)
	}
}

// makeKey 由查询文本和文档范围生成缓存键，文档顺序不影响键值
func (c *ChunkCache) makeKey(query string, documentIDs []string) string {
	ids := make([]string, len(documentIDs))
	copy(ids, documentIDs)
	sort.Strings(ids)

	h := sha256.Sum256([]byte(query + "|" + strings.Join(ids, ",")))
	return "retrieval:" + hex.EncodeToString(h[:16])
}
