package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// 对话领域事件主题
const (
	TopicSummaryCreated = "conversation.summary.created"
	TopicTitleUpdated   = "conversation.title.updated"
)

// SummaryCreatedEvent 摘要生成事件
type SummaryCreatedEvent struct {
	ConversationID string    `json:"conversation_id"`
	SummaryID      string    `json:"summary_id"`
	StartPosition  int       `json:"start_position"`
	EndPosition    int       `json:"end_position"`
	CreatedAt      time.Time `json:"created_at"`
}

// TitleUpdatedEvent 标题更新事件
type TitleUpdatedEvent struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProducerConfig 生产者配置
type ProducerConfig struct {
	Brokers     []string
	Compression string // none, gzip, snappy, lz4, zstd
	MaxRetries  int
	Timeout     time.Duration
}

// EventProducer Kafka 事件生产者，实现 biz.EventPublisher。
type EventProducer struct {
	producer sarama.SyncProducer
	config   *ProducerConfig
}

// NewEventProducer 创建事件生产者
func NewEventProducer(config *ProducerConfig) (*EventProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = config.MaxRetries
	saramaConfig.Producer.Timeout = config.Timeout

	switch config.Compression {
	case "gzip":
		saramaConfig.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		saramaConfig.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		saramaConfig.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		saramaConfig.Producer.Compression = sarama.CompressionZSTD
	default:
		saramaConfig.Producer.Compression = sarama.CompressionNone
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}

	return &EventProducer{
		producer: producer,
		config:   config,
	}, nil
}

// PublishSummaryCreated 发布摘要生成事件
func (p *EventProducer) PublishSummaryCreated(conversationID, summaryID string, startPos, endPos int) error {
	return p.publish(TopicSummaryCreated, conversationID, &SummaryCreatedEvent{
		ConversationID: conversationID,
		SummaryID:      summaryID,
		StartPosition:  startPos,
		EndPosition:    endPos,
		CreatedAt:      time.Now(),
	})
}

// PublishTitleUpdated 发布标题更新事件
func (p *EventProducer) PublishTitleUpdated(conversationID, title string) error {
	return p.publish(TopicTitleUpdated, conversationID, &TitleUpdatedEvent{
		ConversationID: conversationID,
		Title:          title,
		UpdatedAt:      time.Now(),
	})
}

// publish 以对话 ID 作为分区键发布事件，保证同一对话事件有序
func (p *EventProducer) publish(topic, key string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(eventBytes),
		Timestamp: time.Now(),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// Close 关闭生产者
func (p *EventProducer) Close() error {
	return p.producer.Close()
}
