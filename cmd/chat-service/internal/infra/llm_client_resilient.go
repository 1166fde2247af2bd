package infra

import (
	"context"
	"fmt"
	"time"

	"studyassistant/cmd/chat-service/internal/domain"
	"studyassistant/pkg/resilience"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sony/gobreaker"
)

// ResilientLLMClient 在模型网关客户端外包一层熔断器。
// 向量化是只读调用，瞬时失败会做有限重试；生成调用不在此层重试，
// 避免重复产生开销，重试决策留给上游调用方。
type ResilientLLMClient struct {
	inner          *LLMClient
	circuitBreaker *gobreaker.CircuitBreaker
	embedRetries   int
	log            *log.Helper
}

// NewResilientLLMClient 创建带熔断的模型网关客户端
func NewResilientLLMClient(inner *LLMClient, logger log.Logger) *ResilientLLMClient {
	helper := log.NewHelper(logger)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-gateway",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 >= counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			helper.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &ResilientLLMClient{
		inner:          inner,
		circuitBreaker: cb,
		embedRetries:   2,
		log:            helper,
	}
}

// Embed 带熔断和退避重试的向量化调用
func (c *ResilientLLMClient) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32

	err := resilience.RetryWithBackoff(ctx, c.embedRetries, 200*time.Millisecond, 2*time.Second, func() error {
		result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.inner.Embed(ctx, text)
		})
		if err != nil {
			return err
		}
		vector = result.([]float32)
		return nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("llm gateway unavailable: %w", err)
		}
		return nil, err
	}

	return vector, nil
}

// Complete 带熔断的生成调用
func (c *ResilientLLMClient) Complete(ctx context.Context, systemPrompt, userPrompt string, opts domain.GenerateOptions) (*domain.GenerateResult, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.inner.Complete(ctx, systemPrompt, userPrompt, opts)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("llm gateway unavailable: %w", err)
		}
		return nil, err
	}
	return result.(*domain.GenerateResult), nil
}

// State 返回熔断器当前状态
func (c *ResilientLLMClient) State() gobreaker.State {
	return c.circuitBreaker.State()
}
