package main

import (
	"time"
)

// Config is application config.
type Config struct {
	Server    ServerConf    `mapstructure:"server"`
	Data      DataConf      `mapstructure:"data"`
	Vector    VectorConf    `mapstructure:"vector"`
	LLM       LLMConf       `mapstructure:"llm"`
	Event     EventConf     `mapstructure:"event"`
	Chat      ChatConf      `mapstructure:"chat"`
	Retrieval RetrievalConf `mapstructure:"retrieval"`
}

// ServerConf is server config.
type ServerConf struct {
	HTTP HTTPConf `mapstructure:"http"`
}

type HTTPConf struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DataConf is data config.
type DataConf struct {
	Database DatabaseConf `mapstructure:"database"`
	Redis    RedisConf    `mapstructure:"redis"`
}

type DatabaseConf struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type RedisConf struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// VectorConf is vector index config (Milvus).
type VectorConf struct {
	Address    string `mapstructure:"address"`
	Collection string `mapstructure:"collection"`
}

// LLMConf is model gateway config.
type LLMConf struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// EventConf is event config (Kafka). Empty brokers disables publishing.
type EventConf struct {
	Brokers     []string      `mapstructure:"brokers"`
	Compression string        `mapstructure:"compression"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ChatConf is turn pipeline config.
type ChatConf struct {
	HistoryLimit    int           `mapstructure:"history_limit"`
	SummaryWindow   int           `mapstructure:"summary_window"`
	ChatTemperature float64       `mapstructure:"chat_temperature"`
	RAGTemperature  float64       `mapstructure:"rag_temperature"`
	GenTimeout      time.Duration `mapstructure:"gen_timeout"`
	SummaryTimeout  time.Duration `mapstructure:"summary_timeout"`
}

// RetrievalConf is retrieval config.
type RetrievalConf struct {
	TopK      int           `mapstructure:"top_k"`
	Threshold float64       `mapstructure:"threshold"`
	Timeout   time.Duration `mapstructure:"timeout"`
}
