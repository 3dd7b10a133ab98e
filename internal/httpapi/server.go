// Package httpapi wires the gin routes from spec §6 over the
// components owned by internal/container, grounded on
// unified-rag-service/main.go's route-group structure (router groups
// under /api/v1, admin routes guarded by a header-credential
// middleware) and original_source/src/api/routers/*.py for per-endpoint
// request/response shapes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"legal-rag-service/internal/apierrors"
	"legal-rag-service/internal/container"
)

// Server binds the gin engine to the container's components.
type Server struct {
	c      *container.Container
	engine *gin.Engine
}

func NewServer(c *container.Container) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{c: c, engine: engine}
	s.registerMiddleware()
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerMiddleware() {
	engine := s.engine
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     s.c.Settings.CORSOriginList(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(s.observer())
}

// observer records method/path/status/latency into the monitoring
// counters and adds X-Process-Time (spec §4.11 "Observer").
func (s *Server) observer() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		s.c.APIMonitor.RecordRequest(c.Request.Method, path, elapsed, status)
		c.Header("X-Process-Time", elapsed.String())
	}
}

func (s *Server) registerRoutes() {
	engine := s.engine

	engine.GET("/health", s.handleHealth)
	engine.GET("/health/detailed", s.handleHealthDetailed)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/health", s.handleHealth)
		v1.GET("/health/detailed", s.handleHealthDetailed)

		v1.POST("/search", s.c.RateLimiter.Middleware(), s.handleSearch)
		v1.GET("/search", s.c.RateLimiter.Middleware(), s.handleSearchGet)

		v1.POST("/ask", s.c.RateLimiter.Middleware(), s.handleAsk)
		v1.POST("/ask/stream", s.c.RateLimiter.Middleware(), s.handleAskStream)

		v1.POST("/generate", s.c.RateLimiter.Middleware(), s.handleGenerate)

		admin := v1.Group("/admin")
		admin.Use(s.c.RateLimiter.Middleware(), s.requireAPIKey)
		{
			admin.POST("/index", s.handleAdminIndex)
			admin.POST("/index/incremental", s.handleAdminIndexIncremental)
			admin.GET("/index/status", s.handleAdminIndexStatus)
			admin.POST("/index/reset", s.handleAdminIndexReset)
			admin.POST("/upload", s.handleAdminUpload)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/stats", s.handleMonitoringStats)
			monitoring.GET("/vector-db", s.requireAPIKey, s.handleMonitoringVectorDB)
		}
	}
}

// requireAPIKey enforces the shared admin/monitoring credential (spec
// §4.10: "empty credential = auth disabled"), grounded on
// original_source/src/api/auth.py's single shared X-API-Key check.
func (s *Server) requireAPIKey(c *gin.Context) {
	if s.c.Settings.APIKey == "" {
		c.Next()
		return
	}
	if c.GetHeader("X-API-Key") != s.c.Settings.APIKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"code": "UNAUTHORIZED", "message": "invalid or missing X-API-Key"},
		})
		return
	}
	c.Next()
}

// logError writes the typed/uncaught error to both the response body
// and the JSONL error log (spec §7).
func (s *Server) logError(c *gin.Context, err error) {
	body, status := apierrors.ToBody(err)
	s.c.ErrorLog.Log(severityFor(status), string(body.Error.Code), body.Error.Message, map[string]interface{}{
		"path": c.FullPath(), "method": c.Request.Method,
	})
	s.c.Logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(status, body)
}

func severityFor(status int) string {
	if status >= 500 {
		return "error"
	}
	return "warning"
}
