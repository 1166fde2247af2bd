package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyassistant/cmd/chat-service/internal/biz"
	"studyassistant/cmd/chat-service/internal/data"
	"studyassistant/cmd/chat-service/internal/infra"
	"studyassistant/cmd/chat-service/internal/infra/kafka"
	"studyassistant/cmd/chat-service/internal/server"
	"studyassistant/cmd/chat-service/internal/service"
	"studyassistant/pkg/cache"
	"studyassistant/pkg/config"

	kratoslog "github.com/go-kratos/kratos/v2/log"
)

var (
	// Name is the name of the compiled software.
	Name = "chat-service"
	// Version is the version of the compiled software.
	Version = "v1.0.0"

	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "./configs/chat-service.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 创建日志
	logger := kratoslog.With(kratoslog.NewStdLogger(os.Stdout),
		"service.name", Name,
		"service.version", Version,
		"ts", kratoslog.DefaultTimestamp,
		"caller", kratoslog.DefaultCaller,
	)

	// 加载配置（环境变量覆盖文件配置）
	cfgManager, err := config.Load(flagconf, Name)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var conf Config
	if err := cfgManager.Unmarshal(&conf); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}

	// 初始化数据库
	db, err := data.NewDB(&data.DBConfig{
		Host:     conf.Data.Database.Host,
		Port:     conf.Data.Database.Port,
		User:     conf.Data.Database.User,
		Password: conf.Data.Database.Password,
		Database: conf.Data.Database.Database,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	conversationRepo := data.NewConversationRepository(db)
	messageRepo := data.NewMessageRepository(db)
	summaryRepo := data.NewSummaryRepository(db)

	// 初始化检索缓存（Redis 未配置时关闭缓存）
	var chunkCache biz.ChunkCache
	if conf.Data.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(
			conf.Data.Redis.Addr,
			conf.Data.Redis.Password,
			conf.Data.Redis.DB,
			&cache.CacheOptions{
				KeyPrefix:  Name,
				DefaultTTL: conf.Data.Redis.CacheTTL,
				Serializer: &cache.JSONSerializer{},
			},
		)
		chunkCache = data.NewChunkCache(redisCache, conf.Data.Redis.CacheTTL, logger)
	}

	// 初始化向量索引
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	vectorIndex, err := infra.NewMilvusIndex(ctx, &infra.MilvusConfig{
		Address:    conf.Vector.Address,
		Collection: conf.Vector.Collection,
	}, logger)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect vector index: %v", err)
	}

	// 初始化模型网关客户端（熔断 + 向量化重试）
	llmClient := infra.NewResilientLLMClient(infra.NewLLMClient(&infra.LLMClientConfig{
		BaseURL:        conf.LLM.BaseURL,
		APIKey:         conf.LLM.APIKey,
		ChatModel:      conf.LLM.ChatModel,
		EmbeddingModel: conf.LLM.EmbeddingModel,
		Timeout:        conf.LLM.Timeout,
	}, logger), logger)

	// 初始化事件生产者（未配置 broker 时不发事件）
	var events biz.EventPublisher
	var producer *kafka.EventProducer
	if len(conf.Event.Brokers) > 0 {
		producer, err = kafka.NewEventProducer(&kafka.ProducerConfig{
			Brokers:     conf.Event.Brokers,
			Compression: conf.Event.Compression,
			MaxRetries:  conf.Event.MaxRetries,
			Timeout:     conf.Event.Timeout,
		})
		if err != nil {
			log.Fatalf("Failed to create event producer: %v", err)
		}
		events = producer
	}

	// 组装业务层
	retriever := biz.NewRetriever(llmClient, vectorIndex, chunkCache, retrieverConfig(&conf), logger)
	classifier := biz.NewIntentClassifier(llmClient, conf.LLM.Timeout, logger)
	summarizer := biz.NewSummarizer(llmClient, conf.LLM.Timeout, logger)

	agent := biz.NewChatAgent(
		conversationRepo, messageRepo, summaryRepo,
		retriever, classifier, summarizer,
		llmClient, events,
		agentConfig(&conf), logger,
	)
	conversationUc := biz.NewConversationUsecase(conversationRepo, messageRepo, summaryRepo)

	chatService := service.NewChatService(agent, conversationUc)
	httpServer := server.NewHTTPServer(chatService, logger)

	addr := conf.Server.HTTP.Addr
	if addr == "" {
		addr = ":8080"
	}

	log.Printf("Starting %s %s on %s", Name, Version, addr)

	go func() {
		if err := httpServer.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待中断信号以优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// 等待后台摘要任务完成再退出
	agent.Close()

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("Failed to close event producer: %v", err)
		}
	}
	if err := vectorIndex.Close(); err != nil {
		log.Printf("Failed to close vector index: %v", err)
	}

	log.Println("Server exited")
}

// retrieverConfig 用配置覆盖检索默认值，未配置的字段保持默认。
func retrieverConfig(conf *Config) biz.RetrieverConfig {
	rc := biz.DefaultRetrieverConfig()
	if conf.Retrieval.TopK > 0 {
		rc.TopK = conf.Retrieval.TopK
	}
	if conf.Retrieval.Threshold > 0 {
		rc.Threshold = conf.Retrieval.Threshold
	}
	if conf.Retrieval.Timeout > 0 {
		rc.Timeout = conf.Retrieval.Timeout
	}
	return rc
}

// agentConfig 用配置覆盖流水线默认值，未配置的字段保持默认。
func agentConfig(conf *Config) biz.ChatAgentConfig {
	ac := biz.DefaultChatAgentConfig()
	if conf.Chat.HistoryLimit > 0 {
		ac.HistoryLimit = conf.Chat.HistoryLimit
	}
	if conf.Chat.SummaryWindow > 0 {
		ac.SummaryWindow = conf.Chat.SummaryWindow
	}
	if conf.Chat.ChatTemperature > 0 {
		ac.ChatTemperature = conf.Chat.ChatTemperature
	}
	if conf.Chat.RAGTemperature > 0 {
		ac.RAGTemperature = conf.Chat.RAGTemperature
	}
	if conf.Chat.GenTimeout > 0 {
		ac.GenTimeout = conf.Chat.GenTimeout
	}
	if conf.Chat.SummaryTimeout > 0 {
		ac.SummaryTimeout = conf.Chat.SummaryTimeout
	}
	return ac
}
