// Package server exposes the order recognition service over HTTP.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haoxuny/orderscan/internal/common"
	"github.com/haoxuny/orderscan/internal/export"
	"github.com/haoxuny/orderscan/internal/pipeline"
	"github.com/haoxuny/orderscan/internal/repository"
)

// uploadUserHeader names the client supplying the screenshot. Missing or
// blank headers fall back to anonymous.
const uploadUserHeader = "X-Upload-User"

// Server holds the HTTP handler dependencies.
type Server struct {
	cfg       common.ServerConfig
	processor *pipeline.Processor
	orders    repository.OrderRepository
	exporter  *export.Service
	logger    *slog.Logger
}

func New(cfg common.ServerConfig, processor *pipeline.Processor, orders repository.OrderRepository, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		processor: processor,
		orders:    orders,
		exporter:  exporter,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestContext)
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes

	r.GET("/healthz", s.health)

	api := r.Group("/api/orders")
	{
		api.POST("/upload", s.uploadOrder)
		api.POST("/preview", s.previewOrder)
		api.GET("", s.listOrders)
		api.GET("/export", s.exportOrders)
		api.GET("/:id", s.getOrder)
		api.PUT("/:id", s.updateOrder)
		api.POST("/delete", s.deleteOrders)
	}
	return r
}

// requestContext tags every request with an id and the uploader identity,
// then logs it once completed.
func (s *Server) requestContext(c *gin.Context) {
	requestID := uuid.NewString()
	ctx := common.WithRequestID(c.Request.Context(), requestID)
	ctx = common.WithUploadUser(ctx, c.GetHeader(uploadUserHeader))
	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Request-Id", requestID)

	start := time.Now()
	c.Next()

	s.logger.Info("http.request",
		"request_id", requestID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"ms", time.Since(start).Milliseconds(),
	)
}

func (s *Server) health(c *gin.Context) {
	ok(c, gin.H{"status": "ok"})
}

func uploadUser(c *gin.Context) string {
	return common.UploadUserFromContext(c.Request.Context())
}
