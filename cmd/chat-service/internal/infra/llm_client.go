package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"
	"studyassistant/pkg/monitoring"

	"github.com/go-kratos/kratos/v2/log"
)

// LLMClientConfig 模型网关客户端配置（OpenAI 兼容 API）
type LLMClientConfig struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

// LLMClient OpenAI 兼容的模型网关客户端，同时提供向量化和生成能力。
type LLMClient struct {
	config *LLMClientConfig
	client *http.Client
	log    *log.Helper
}

// NewLLMClient 创建模型网关客户端
func NewLLMClient(config *LLMClientConfig, logger log.Logger) *LLMClient {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &LLMClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		log:    log.NewHelper(logger),
	}
}

// Embed 将文本编码为向量
func (c *LLMClient) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	defer func() {
		monitoring.LLMRequestDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	}()

	reqBody := map[string]interface{}{
		"model": c.config.EmbeddingModel,
		"input": text,
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/embeddings", reqBody, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return out.Data[0].Embedding, nil
}

// Complete 根据 system/user 提示词生成补全
func (c *LLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerateOptions) (*domain.GenerateResult, error) {
	start := time.Now()
	defer func() {
		monitoring.LLMRequestDuration.WithLabelValues("complete").Observe(time.Since(start).Seconds())
	}()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	reqBody := map[string]interface{}{
		"model":       c.config.ChatModel,
		"temperature": opts.Temperature,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	if opts.MaxTokens > 0 {
		reqBody["max_tokens"] = opts.MaxTokens
	}
	if opts.JSONMode {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
		Model string `json:"model"`
	}
	if err := c.post(ctx, "/chat/completions", reqBody, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("no completion returned")
	}

	return &domain.GenerateResult{
		Text:   out.Choices[0].Message.Content,
		Tokens: out.Usage.TotalTokens,
		Model:  out.Model,
	}, nil
}

// post 发送 JSON 请求并解析响应
func (c *LLMClient) post(ctx context.Context, path string, reqBody, out interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		c.log.WithContext(ctx).Warnf("llm gateway returned %s: %.200s", resp.Status, payload)
		return fmt.Errorf("llm gateway returned %s", resp.Status)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
