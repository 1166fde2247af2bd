package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"
	"studyassistant/pkg/monitoring"

	"github.com/go-kratos/kratos/v2/log"
)

// EventPublisher 领域事件发布接口（Kafka 实现，可为 nil）
type EventPublisher interface {
	PublishSummaryCreated(conversationID, summaryID string, startPos, endPos int) error
	PublishTitleUpdated(conversationID, title string) error
}

// ChatAgentConfig 对话代理配置
type ChatAgentConfig struct {
	HistoryLimit    int           // 载入的最近消息条数
	SummaryWindow   int           // 摘要窗口大小（消息条数）
	ChatTemperature float64       // 闲聊分支温度
	RAGTemperature  float64       // 文档问答分支温度（偏事实性）
	GenTimeout      time.Duration // 单次生成调用超时
	SummaryTimeout  time.Duration // 后台摘要任务超时
}

// DefaultChatAgentConfig 默认配置：近 10 条消息做上下文，每 10 条消息（5 对）滚动摘要一次。
func DefaultChatAgentConfig() ChatAgentConfig {
	return ChatAgentConfig{
		HistoryLimit:    10,
		SummaryWindow:   10,
		ChatTemperature: 0.7,
		RAGTemperature:  0.3,
		GenTimeout:      60 * time.Second,
		SummaryTimeout:  60 * time.Second,
	}
}

// TurnResult 一轮对话的结果
type TurnResult struct {
	Response     string
	Intent       domain.Intent
	UsedChunkIDs []string
	MessageID    string
	Tokens       int
}

// ChatAgent 对话代理。每轮按固定流水线执行：
// 载入历史 → 意图分类 → {闲聊 | 检索问答} → 持久化 → 按需摘要。
type ChatAgent struct {
	conversationRepo domain.ConversationRepository
	messageRepo      domain.MessageRepository
	summaryRepo      domain.SummaryRepository
	retriever        *Retriever
	classifier       *IntentClassifier
	summarizer       *Summarizer
	generator        domain.GenerationProvider
	events           EventPublisher
	config           ChatAgentConfig
	locks            *conversationLocks
	background       sync.WaitGroup
	inflightMu       sync.Mutex
	inflight         map[string]struct{}
	log              *log.Helper
}

// NewChatAgent 创建对话代理。events 可以为 nil。
func NewChatAgent(
	conversationRepo domain.ConversationRepository,
	messageRepo domain.MessageRepository,
	summaryRepo domain.SummaryRepository,
	retriever *Retriever,
	classifier *IntentClassifier,
	summarizer *Summarizer,
	generator domain.GenerationProvider,
	events EventPublisher,
	config ChatAgentConfig,
	logger log.Logger,
) *ChatAgent {
	return &ChatAgent{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		summaryRepo:      summaryRepo,
		retriever:        retriever,
		classifier:       classifier,
		summarizer:       summarizer,
		generator:        generator,
		events:           events,
		config:           config,
		locks:            newConversationLocks(),
		inflight:         make(map[string]struct{}),
		log:              log.NewHelper(logger),
	}
}

// turnContext 单轮流水线在各阶段之间传递的状态
type turnContext struct {
	conversation *domain.Conversation
	history      []*domain.Message
	summaries    []*domain.Summary
	maxPosition  int
	intent       domain.Intent
	response     string
	chunkIDs     []string
	tokens       int
	model        string
}

// ProcessTurn 处理一轮对话。阶段 1-4 的任何失败都作为整轮错误返回，
// 且不持久化任何内容；摘要阶段的失败永远不影响本轮结果。
func (a *ChatAgent) ProcessTurn(
	ctx context.Context,
	conversationID, userID, message string,
	documentScope []string,
) (*TurnResult, error) {
	start := time.Now()

	// 校验在拿锁之前完成，坏请求不占用串行化资源
	conversation, err := a.conversationRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.OwnedBy(userID) {
		return nil, domain.ErrUnauthorized
	}

	// 同一对话串行处理。外部调用都有超时，锁不会被无限占用；
	// release 在所有退出路径上执行，包括取消。
	release := a.locks.Acquire(conversationID)
	defer release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	turn := &turnContext{conversation: conversation}

	// 1. LoadHistory
	if err := a.loadHistory(ctx, turn); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	// 2. ClassifyIntent
	turn.intent = a.classifier.Classify(ctx, message, len(turn.history) > 0)

	// 3. 分支执行
	scope := documentScope
	if len(scope) == 0 {
		scope = conversation.DocumentIDs
	}
	switch turn.intent {
	case domain.IntentNormalChat:
		err = a.normalChat(ctx, turn, message)
	default:
		err = a.retrieveAndAnswer(ctx, turn, message, scope)
	}
	if err != nil {
		monitoring.TurnsTotal.WithLabelValues(string(turn.intent), "error").Inc()
		return nil, err
	}

	// 4. PersistTurn：先写用户消息，落盘后才尝试写助手消息
	assistantMsg, err := a.persistTurn(ctx, turn, message)
	if err != nil {
		monitoring.TurnsTotal.WithLabelValues(string(turn.intent), "store_error").Inc()
		return nil, err
	}

	// 5. MaybeSummarize：相对本轮成功是 fire-and-forget
	a.maybeSummarize(turn)

	monitoring.TurnsTotal.WithLabelValues(string(turn.intent), "ok").Inc()
	monitoring.TurnDuration.WithLabelValues(string(turn.intent)).Observe(time.Since(start).Seconds())

	return &TurnResult{
		Response:     turn.response,
		Intent:       turn.intent,
		UsedChunkIDs: turn.chunkIDs,
		MessageID:    assistantMsg.ID,
		Tokens:       turn.tokens,
	}, nil
}

// loadHistory 载入最近 H 条消息与全部摘要，限定提示词规模
func (a *ChatAgent) loadHistory(ctx context.Context, turn *turnContext) error {
	history, err := a.messageRepo.GetRecentMessages(ctx, turn.conversation.ID, a.config.HistoryLimit)
	if err != nil {
		return err
	}

	summaries, err := a.summaryRepo.ListSummaries(ctx, turn.conversation.ID)
	if err != nil {
		return err
	}

	maxPos, err := a.messageRepo.GetMaxPosition(ctx, turn.conversation.ID)
	if err != nil {
		return err
	}

	turn.history = history
	turn.summaries = summaries
	turn.maxPosition = maxPos
	return nil
}

// normalChat 闲聊分支：摘要 + 近期历史 + 新消息，不做检索
func (a *ChatAgent) normalChat(ctx context.Context, turn *turnContext, message string) error {
	userPrompt := message
	if history := a.formatHistory(turn); history != "" {
		userPrompt = history + "\n\nStudent: " + message
	}

	result, err := a.generator.Complete(ctx, normalChatSystemPrompt, userPrompt, domain.GenerateOptions{
		Temperature: a.config.ChatTemperature,
		Timeout:     a.config.GenTimeout,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	turn.response = result.Text
	turn.chunkIDs = []string{}
	turn.tokens = result.Tokens
	turn.model = result.Model
	return nil
}

// retrieveAndAnswer 文档问答分支。检索为空时直接返回固定回复，
// 不带空上下文调用生成模型。
func (a *ChatAgent) retrieveAndAnswer(ctx context.Context, turn *turnContext, message string, scope []string) error {
	chunks, err := a.retriever.Retrieve(ctx, message, scope)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		a.log.WithContext(ctx).Infof("no relevant chunks for conversation %s, returning fixed response", turn.conversation.ID)
		turn.response = NoContextResponse
		turn.chunkIDs = []string{}
		return nil
	}

	chunkIDs := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunkIDs = append(chunkIDs, chunk.ID)
	}

	userPrompt := fmt.Sprintf(ragAnswerUserPromptTemplate, message, BuildContext(chunks), a.formatHistory(turn))

	result, err := a.generator.Complete(ctx, ragAnswerSystemPrompt, userPrompt, domain.GenerateOptions{
		Temperature: a.config.RAGTemperature,
		Timeout:     a.config.GenTimeout,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	turn.response = result.Text
	turn.chunkIDs = chunkIDs
	turn.tokens = result.Tokens
	turn.model = result.Model
	return nil
}

// persistTurn 持久化本轮消息：用户消息位置 N+1，助手消息位置 N+2。
// 助手消息写入失败不回滚用户消息，对话保持合法可续的状态。
func (a *ChatAgent) persistTurn(ctx context.Context, turn *turnContext, message string) (*domain.Message, error) {
	userMsg := domain.NewUserMessage(turn.conversation.ID, message, turn.maxPosition+1)
	if err := a.messageRepo.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	assistantMsg := domain.NewAssistantMessage(turn.conversation.ID, turn.response, turn.maxPosition+2, turn.chunkIDs)
	assistantMsg.SetUsage(turn.tokens, turn.model)
	if err := a.messageRepo.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	turn.maxPosition += 2

	turn.conversation.UpdateActivity()
	if err := a.conversationRepo.UpdateConversation(ctx, turn.conversation); err != nil {
		// 活跃时间戳不是关键路径
		a.log.WithContext(ctx).Warnf("update conversation activity: %v", err)
	}

	return assistantMsg, nil
}

// maybeSummarize 自上次摘要以来累计的消息达到窗口大小时，
// 在后台对恰好一个窗口生成摘要。失败只记录日志。
// 同一对话最多一个在途摘要任务：后台任务在对话锁之外执行，后续轮次
// 载入的摘要列表可能尚未包含在途任务的结果，不做去重会对同一窗口
// 重复触发。
func (a *ChatAgent) maybeSummarize(turn *turnContext) {
	windowStart := 1
	var previousSummary string
	if last := latestSummary(turn.summaries); last != nil {
		windowStart = last.EndPosition + 1
		previousSummary = last.Summary
	}

	pending := turn.maxPosition - windowStart + 1
	if pending < a.config.SummaryWindow {
		return
	}
	windowEnd := windowStart + a.config.SummaryWindow - 1

	conversationID := turn.conversation.ID
	needsTitle := turn.conversation.NeedsTitle() && previousSummary == ""

	a.inflightMu.Lock()
	if _, busy := a.inflight[conversationID]; busy {
		a.inflightMu.Unlock()
		return
	}
	a.inflight[conversationID] = struct{}{}
	a.inflightMu.Unlock()

	a.background.Add(1)
	go func() {
		defer a.background.Done()
		defer func() {
			a.inflightMu.Lock()
			delete(a.inflight, conversationID)
			a.inflightMu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), a.config.SummaryTimeout)
		defer cancel()

		if err := a.summarizeWindow(ctx, conversationID, windowStart, windowEnd, previousSummary, needsTitle); err != nil {
			monitoring.SummariesTotal.WithLabelValues("error").Inc()
			a.log.Errorf("background summarization failed for conversation %s: %v", conversationID, err)
			return
		}
		monitoring.SummariesTotal.WithLabelValues("ok").Inc()
	}()
}

// summarizeWindow 对 [startPos, endPos] 的消息生成并持久化摘要
func (a *ChatAgent) summarizeWindow(
	ctx context.Context,
	conversationID string,
	startPos, endPos int,
	previousSummary string,
	needsTitle bool,
) error {
	window, err := a.messageRepo.GetMessagesInRange(ctx, conversationID, startPos, endPos)
	if err != nil {
		return fmt.Errorf("load summary window: %w", err)
	}
	if len(window) != endPos-startPos+1 {
		return fmt.Errorf("%w: window [%d,%d] has %d messages", domain.ErrInvalidSummaryRange, startPos, endPos, len(window))
	}

	candidate, err := a.summarizer.Summarize(ctx, window, previousSummary, needsTitle)
	if err != nil {
		return err
	}

	summary, err := domain.NewSummary(conversationID, startPos, endPos, candidate.Summary)
	if err != nil {
		return err
	}
	if err := a.summaryRepo.CreateSummary(ctx, summary); err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}

	if needsTitle && candidate.Title != "" {
		if err := a.updateTitle(ctx, conversationID, candidate.Title); err != nil {
			a.log.Warnf("update conversation title: %v", err)
		}
	}

	if a.events != nil {
		if err := a.events.PublishSummaryCreated(conversationID, summary.ID, startPos, endPos); err != nil {
			a.log.Warnf("publish summary event: %v", err)
		}
	}

	return nil
}

func (a *ChatAgent) updateTitle(ctx context.Context, conversationID, title string) error {
	conversation, err := a.conversationRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	conversation.UpdateTitle(title)
	if err := a.conversationRepo.UpdateConversation(ctx, conversation); err != nil {
		return err
	}
	if a.events != nil {
		if err := a.events.PublishTitleUpdated(conversationID, conversation.Title); err != nil {
			a.log.Warnf("publish title event: %v", err)
		}
	}
	return nil
}

// formatHistory 把摘要和近期消息拼成提示词里的历史段
func (a *ChatAgent) formatHistory(turn *turnContext) string {
	var parts []string
	if last := latestSummary(turn.summaries); last != nil {
		parts = append(parts, "[Previous conversation summary]: "+last.Summary)
	}
	for _, msg := range turn.history {
		role := "Assistant"
		if msg.Role == domain.RoleUser {
			role = "Student"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", role, msg.Content))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Previous Conversation:\n" + strings.Join(parts, "\n")
}

// Close 等待在途的后台摘要任务结束，用于优雅关闭
func (a *ChatAgent) Close() {
	a.background.Wait()
}

func latestSummary(summaries []*domain.Summary) *domain.Summary {
	if len(summaries) == 0 {
		return nil
	}
	return summaries[len(summaries)-1]
}
