package infra

import (
	"context"
	"fmt"
	"strings"

	"studyassistant/cmd/chat-service/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// MilvusConfig Milvus 配置
type MilvusConfig struct {
	Address    string
	Collection string
}

// MilvusIndex 基于 Milvus 的向量索引实现，余弦相似度检索。
type MilvusIndex struct {
	client     client.Client
	collection string
	log        *log.Helper
}

// NewMilvusIndex 创建 Milvus 向量索引客户端
func NewMilvusIndex(ctx context.Context, config *MilvusConfig, logger log.Logger) (*MilvusIndex, error) {
	c, err := client.NewClient(ctx, client.Config{Address: config.Address})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}
	return &MilvusIndex{
		client:     c,
		collection: config.Collection,
		log:        log.NewHelper(logger),
	}, nil
}

// Search 余弦相似度检索。documentIDs 非空时下推过滤表达式，
// 返回结果按相似度降序排列。
func (m *MilvusIndex) Search(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*domain.RetrievedChunk, error) {
	expr := ""
	if len(documentIDs) > 0 {
		quoted := make([]string, len(documentIDs))
		for i, id := range documentIDs {
			quoted[i] = fmt.Sprintf("%q", id)
		}
		expr = fmt.Sprintf("document_id in [%s]", strings.Join(quoted, ", "))
	}

	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, fmt.Errorf("build search param: %w", err)
	}

	results, err := m.client.Search(
		ctx,
		m.collection,
		nil,
		expr,
		[]string{"chunk_text", "document_id"},
		[]entity.Vector{entity.FloatVector(vector)},
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}

	var chunks []*domain.RetrievedChunk
	for _, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("milvus search result: %w", result.Err)
		}
		for i := 0; i < result.ResultCount; i++ {
			id, err := result.IDs.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("read chunk id: %w", err)
			}
			text, err := getStringField(result.Fields, "chunk_text", i)
			if err != nil {
				return nil, err
			}
			documentID, err := getStringField(result.Fields, "document_id", i)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, &domain.RetrievedChunk{
				ID:         id,
				DocumentID: documentID,
				Text:       text,
				Score:      float64(result.Scores[i]),
			})
		}
	}

	m.log.WithContext(ctx).Debugf("milvus returned %d candidates (topK=%d, filter=%q)", len(chunks), topK, expr)
	return chunks, nil
}

// Close 关闭连接
func (m *MilvusIndex) Close() error {
	return m.client.Close()
}

func getStringField(fields client.ResultSet, name string, idx int) (string, error) {
	column := fields.GetColumn(name)
	if column == nil {
		return "", fmt.Errorf("milvus result missing field %s", name)
	}
	value, err := column.GetAsString(idx)
	if err != nil {
		return "", fmt.Errorf("read field %s: %w", name, err)
	}
	return value, nil
}
