package biz

import (
	"context"
	"sort"
	"sync"

	"studyassistant/cmd/chat-service/internal/domain"
)

// MockGenerator 模拟生成模型
type MockGenerator struct {
	mu           sync.Mutex
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerateOptions) (*domain.GenerateResult, error)
	Calls        int
}

func (m *MockGenerator) Complete(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerateOptions) (*domain.GenerateResult, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, systemPrompt, userPrompt, opts)
	}
	return &domain.GenerateResult{Text: "mock response", Tokens: 10, Model: "mock-model"}, nil
}

func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockEmbedder 模拟向量化
type MockEmbedder struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
	Calls     int
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// MockVectorIndex 模拟向量索引
type MockVectorIndex struct {
	SearchFunc func(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*domain.RetrievedChunk, error)
}

func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, documentIDs []string, topK int) ([]*domain.RetrievedChunk, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, vector, documentIDs, topK)
	}
	return nil, nil
}

// MockChunkCache 模拟检索缓存
type MockChunkCache struct {
	GetFunc func(ctx context.Context, query string, documentIDs []string) ([]*domain.RetrievedChunk, bool)
	SetFunc func(ctx context.Context, query string, documentIDs []string, chunks []*domain.RetrievedChunk)
	Sets    int
}

func (m *MockChunkCache) Get(ctx context.Context, query string, documentIDs []string) ([]*domain.RetrievedChunk, bool) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, query, documentIDs)
	}
	return nil, false
}

func (m *MockChunkCache) Set(ctx context.Context, query string, documentIDs []string, chunks []*domain.RetrievedChunk) {
	m.Sets++
	if m.SetFunc != nil {
		m.SetFunc(ctx, query, documentIDs, chunks)
	}
}

// MockEventPublisher 记录发布的事件
type MockEventPublisher struct {
	mu        sync.Mutex
	Summaries []string
	Titles    []string
}

func (m *MockEventPublisher) PublishSummaryCreated(conversationID, summaryID string, startPos, endPos int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Summaries = append(m.Summaries, summaryID)
	return nil
}

func (m *MockEventPublisher) PublishTitleUpdated(conversationID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Titles = append(m.Titles, title)
	return nil
}

// memoryStore 内存仓储，实现三个仓储接口，模拟数据库的位置唯一约束。
type memoryStore struct {
	mu            sync.Mutex
	conversations map[string]*domain.Conversation
	messages      map[string][]*domain.Message
	summaries     map[string][]*domain.Summary

	CreateMessageErr error
	failAfter        int // 写入 failAfter 条消息后开始报错，0 表示不限
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		conversations: make(map[string]*domain.Conversation),
		messages:      make(map[string][]*domain.Message),
		summaries:     make(map[string][]*domain.Summary),
	}
}

func (s *memoryStore) CreateConversation(ctx context.Context, c *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *c
	s.conversations[c.ID] = &clone
	return nil
}

func (s *memoryStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *memoryStore) UpdateConversation(ctx context.Context, c *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[c.ID]; !ok {
		return domain.ErrConversationNotFound
	}
	clone := *c
	s.conversations[c.ID] = &clone
	return nil
}

func (s *memoryStore) ListConversations(ctx context.Context, userID string, limit, offset int) ([]*domain.Conversation, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Conversation
	for _, c := range s.conversations {
		if c.UserID == userID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, len(out), nil
}

func (s *memoryStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return domain.ErrConversationNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	delete(s.summaries, id)
	return nil
}

func (s *memoryStore) CreateMessage(ctx context.Context, m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateMessageErr != nil {
		return s.CreateMessageErr
	}
	if s.failAfter > 0 && len(s.messages[m.ConversationID]) >= s.failAfter {
		return domain.ErrPositionConflict
	}
	for _, existing := range s.messages[m.ConversationID] {
		if existing.Position == m.Position {
			return domain.ErrPositionConflict
		}
	}
	clone := *m
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], &clone)
	return nil
}

func (s *memoryStore) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.sorted(conversationID)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (s *memoryStore) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*domain.Message, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.sorted(conversationID)
	total := len(msgs)
	if offset >= len(msgs) {
		return nil, total, nil
	}
	msgs = msgs[offset:]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, total, nil
}

func (s *memoryStore) GetMessagesInRange(ctx context.Context, conversationID string, startPos, endPos int) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Message
	for _, m := range s.sorted(conversationID) {
		if m.Position >= startPos && m.Position <= endPos {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memoryStore) GetMaxPosition(ctx context.Context, conversationID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, m := range s.messages[conversationID] {
		if m.Position > max {
			max = m.Position
		}
	}
	return max, nil
}

func (s *memoryStore) sorted(conversationID string) []*domain.Message {
	msgs := make([]*domain.Message, 0, len(s.messages[conversationID]))
	for _, m := range s.messages[conversationID] {
		clone := *m
		msgs = append(msgs, &clone)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Position < msgs[j].Position })
	return msgs
}

func (s *memoryStore) CreateSummary(ctx context.Context, summary *domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := summary.Validate(); err != nil {
		return err
	}
	for _, existing := range s.summaries[summary.ConversationID] {
		if existing.Overlaps(summary) {
			return domain.ErrInvalidSummaryRange
		}
	}
	clone := *summary
	s.summaries[summary.ConversationID] = append(s.summaries[summary.ConversationID], &clone)
	return nil
}

func (s *memoryStore) ListSummaries(ctx context.Context, conversationID string) ([]*domain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Summary, 0, len(s.summaries[conversationID]))
	for _, sum := range s.summaries[conversationID] {
		clone := *sum
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memoryStore) GetLatestSummary(ctx context.Context, conversationID string) (*domain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := s.summaries[conversationID]
	if len(sums) == 0 {
		return nil, nil
	}
	clone := *sums[len(sums)-1]
	return &clone, nil
}

func (s *memoryStore) messageCount(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[conversationID])
}

func (s *memoryStore) summaryCount(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.summaries[conversationID])
}
