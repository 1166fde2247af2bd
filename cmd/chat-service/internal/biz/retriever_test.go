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

func TestRetrieve_ThresholdFiltering(t *testing.T) {
	index := &MockVectorIndex{
		SearchFunc: func(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*domain.RetrievedChunk, error) {
			return []*domain.RetrievedChunk{
				{ID: "a", Text: "high", Score: 0.92},
				{ID: "b", Text: "medium", Score: 0.40},
				{ID: "c", Text: "low", Score: 0.05},
			}, nil
		},
	}
	retriever := NewRetriever(&MockEmbedder{}, index, nil, RetrieverConfig{TopK: 8, Threshold: 0.1, Timeout: time.Second}, log.DefaultLogger)

	chunks, err := retriever.Retrieve(context.Background(), "query", nil)

	assert.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].ID)
	assert.Equal(t, "b", chunks[1].ID)
	// 结果保持相似度降序
	assert.GreaterOrEqual(t, chunks[0].Score, chunks[1].Score)
}

func TestRetrieve_ThresholdMonotonicity(t *testing.T) {
	search := func(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*domain.RetrievedChunk, error) {
		return []*domain.RetrievedChunk{
			{ID: "a", Score: 0.95},
			{ID: "b", Score: 0.60},
			{ID: "c", Score: 0.30},
			{ID: "d", Score: 0.12},
		}, nil
	}

	// 阈值升高，结果数只能不增
	prev := 5
	for _, threshold := range []float64{0.1, 0.3, 0.6, 0.9} {
		retriever := NewRetriever(&MockEmbedder{}, &MockVectorIndex{SearchFunc: search}, nil,
			RetrieverConfig{TopK: 8, Threshold: threshold, Timeout: time.Second}, log.DefaultLogger)

		chunks, err := retriever.Retrieve(context.Background(), "query", nil)
		assert.NoError(t, err)
		assert.LessOrEqual(t, len(chunks), prev)
		for _, chunk := range chunks {
			assert.GreaterOrEqual(t, chunk.Score, threshold)
		}
		prev = len(chunks)
	}
}

func TestRetrieve_EmptyResultIsNotError(t *testing.T) {
	index := &MockVectorIndex{
		SearchFunc: func(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*domain.RetrievedChunk, error) {
			return nil, nil
		},
	}
	retriever := NewRetriever(&MockEmbedder{}, index, nil, DefaultRetrieverConfig(), log.DefaultLogger)

	chunks, err := retriever.Retrieve(context.Background(), "query", nil)

	assert.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	embedder := &MockEmbedder{
		EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		},
	}
	retriever := NewRetriever(embedder, &MockVectorIndex{}, nil, DefaultRetrieverConfig(), log.DefaultLogger)

	_, err := retriever.Retrieve(context.Background(), "query", nil)

	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.NotErrorIs(t, err, domain.ErrVectorSearchFailed)
}

func TestRetrieve_SearchFailure(t *testing.T) {
	index := &MockVectorIndex{
		SearchFunc: func(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*domain.RetrievedChunk, error) {
			return nil, errors.New("index unavailable")
		},
	}
	retriever := NewRetriever(&MockEmbedder{}, index, nil, DefaultRetrieverConfig(), log.DefaultLogger)

	_, err := retriever.Retrieve(context.Background(), "query", nil)

	assert.ErrorIs(t, err, domain.ErrVectorSearchFailed)
	assert.NotErrorIs(t, err, domain.ErrEmbeddingFailed)
}

func TestRetrieve_CacheHitSkipsBackend(t *testing.T) {
	cached := []*domain.RetrievedChunk{{ID: "cached", Text: "from cache", Score: 0.8}}
	cache := &MockChunkCache{
		GetFunc: func(ctx context.Context, query string, documentIDs []string) ([]*domain.RetrievedChunk, bool) {
			return cached, true
		},
	}
	embedder := &MockEmbedder{}
	retriever := NewRetriever(embedder, &MockVectorIndex{}, cache, DefaultRetrieverConfig(), log.DefaultLogger)

	chunks, err := retriever.Retrieve(context.Background(), "query", nil)

	assert.NoError(t, err)
	assert.Equal(t, cached, chunks)
	assert.Equal(t, 0, embedder.Calls)
}

func TestRetrieve_CacheMissPopulatesCache(t *testing.T) {
	index := &MockVectorIndex{
		SearchFunc: func(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*domain.RetrievedChunk, error) {
			return []*domain.RetrievedChunk{{ID: "a", Text: "hit", Score: 0.9}}, nil
		},
	}
	cache := &MockChunkCache{}
	retriever := NewRetriever(&MockEmbedder{}, index, cache, DefaultRetrieverConfig(), log.DefaultLogger)

	chunks, err := retriever.Retrieve(context.Background(), "query", []string{"doc-1"})

	assert.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, 1, cache.Sets)
}

func TestBuildContext(t *testing.T) {
	chunks := []*domain.RetrievedChunk{
		{ID: "a", Text: "Goroutines are lightweight.", Score: 0.91},
		{ID: "b", Text: "Channels synchronize.", Score: 0.52},
	}

	got := BuildContext(chunks)

	assert.Contains(t, got, "[Excerpt 1] (Similarity: 0.91)\nGoroutines are lightweight.")
	assert.Contains(t, got, "[Excerpt 2] (Similarity: 0.52)\nChannels synchronize.")
}
