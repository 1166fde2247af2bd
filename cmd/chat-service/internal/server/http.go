package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"studyassistant/cmd/chat-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine  *gin.Engine
	server  *http.Server
	service *service.ChatService
	logger  log.Logger
}

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(srv *service.ChatService, logger log.Logger) *HTTPServer {
	engine := gin.New()

	s := &HTTPServer{
		engine:  engine,
		service: srv,
		logger:  logger,
	}

	s.registerMiddleware()
	s.registerRoutes()

	return s
}

// registerMiddleware 注册全局中间件
func (s *HTTPServer) registerMiddleware() {
	s.engine.Use(RecoveryMiddleware(s.logger))
	s.engine.Use(CORSMiddleware())
	s.engine.Use(LoggingMiddleware(s.logger))
	s.engine.Use(MetricsMiddleware())
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	v1.Use(RequireUserMiddleware())
	{
		v1.POST("/conversations", s.createConversation)
		v1.GET("/conversations", s.listConversations)
		v1.GET("/conversations/:id", s.getConversation)
		v1.DELETE("/conversations/:id", s.deleteConversation)
		v1.GET("/conversations/:id/messages", s.listMessages)
		v1.GET("/conversations/:id/summaries", s.listSummaries)
		v1.POST("/conversations/:id/messages", s.processTurn)
	}
}

// userID 从请求头解析用户身份。认证在网关完成，这里只消费结果。
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

type createConversationRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

// createConversation 创建对话
func (s *HTTPServer) createConversation(c *gin.Context) {
	var req createConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "invalid request body"})
			return
		}
	}

	reply, err := s.service.CreateConversation(c.Request.Context(), userID(c), req.DocumentIDs)
	if err != nil {
		Error(c, err)
		return
	}
	Created(c, reply)
}

// getConversation 获取对话
func (s *HTTPServer) getConversation(c *gin.Context) {
	reply, err := s.service.GetConversation(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, reply)
}

// listConversations 列出对话
func (s *HTTPServer) listConversations(c *gin.Context) {
	limit, offset := pagination(c)
	replies, total, err := s.service.ListConversations(c.Request.Context(), userID(c), limit, offset)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"conversations": replies, "total": total})
}

// deleteConversation 删除对话
func (s *HTTPServer) deleteConversation(c *gin.Context) {
	if err := s.service.DeleteConversation(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		Error(c, err)
		return
	}
	NoContent(c)
}

// listMessages 列出消息
func (s *HTTPServer) listMessages(c *gin.Context) {
	limit, offset := pagination(c)
	replies, total, err := s.service.ListMessages(c.Request.Context(), c.Param("id"), userID(c), limit, offset)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"messages": replies, "total": total})
}

// listSummaries 列出摘要
func (s *HTTPServer) listSummaries(c *gin.Context) {
	replies, err := s.service.ListSummaries(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, gin.H{"summaries": replies})
}

type processTurnRequest struct {
	Message     string   `json:"message" binding:"required"`
	DocumentIDs []string `json:"document_ids"`
}

// processTurn 处理一轮对话
func (s *HTTPServer) processTurn(c *gin.Context) {
	var req processTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Code: 400, Message: "message is required"})
		return
	}

	reply, err := s.service.ProcessTurn(c.Request.Context(), c.Param("id"), userID(c), req.Message, req.DocumentIDs)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, reply)
}

// pagination 解析分页参数
func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Start 启动服务器
func (s *HTTPServer) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
