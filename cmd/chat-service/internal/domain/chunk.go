package domain

// RetrievedChunk 一次检索返回的文档片段，仅在单轮对话内存活，不落库。
type RetrievedChunk struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}
