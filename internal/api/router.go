package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/LJTian/NewsPulse/internal/auth"
	"github.com/LJTian/NewsPulse/internal/pipeline"
	"github.com/LJTian/NewsPulse/internal/ratelimit"
	"github.com/LJTian/NewsPulse/internal/storage"
	"github.com/gin-gonic/gin"
)

// ArticleLister 是列表接口需要的存储能力（由 storage.Store 提供）
type ArticleLister interface {
	ListArticles(limit int) ([]storage.Article, error)
}

// Server 注册触发接口并持有流水线各环节
type Server struct {
	Syncer     *pipeline.Syncer
	Dispatcher *pipeline.Dispatcher
	Cycle      *pipeline.Cycle

	Trigger *auth.TriggerAuthorizer
	Admin   *auth.AdminAuthorizer
	Limiter *ratelimit.Limiter

	// strict 档限流：默认 10 次 / 300 秒
	RateLimitMax    int
	RateLimitWindow time.Duration

	Articles ArticleLister
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/api/v1/articles", s.listArticles)

	// 调度器触发路径：鉴权 + strict 档限流
	triggered := r.Group("/", s.triggerAuthMiddleware(), s.rateLimitMiddleware())
	{
		triggered.GET("/sync-status", s.syncStatus)
		triggered.POST("/sync", s.runSync)
		triggered.GET("/process-status", s.processStatus)
		triggered.POST("/process", s.runProcess)
		triggered.GET("/publish-cycle", s.runPublishCycle)
		triggered.POST("/publish-cycle", s.runPublishCycle)
	}

	// 管理端手动触发路径：管理员令牌 + 可信 Origin，与调度器路径互相独立
	admin := r.Group("/admin", s.adminAuthMiddleware(), s.rateLimitMiddleware())
	{
		admin.POST("/sync", s.runSync)
		admin.POST("/publish-cycle", s.runPublishCycle)
	}
}

// Recovery 把任何未预期的 panic 映射为 JSON 500，进程不退出
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("api: panic recovered: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   fmt.Sprintf("%v", recovered),
		})
	})
}

func (s *Server) triggerAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Trigger.Authorize(c.Request) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthorized",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Admin.Authorize(c.Request) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "forbidden",
			})
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware 对触发接口按路径做 strict 档限流，
// 判定结果透出到 X-RateLimit-* 响应头
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "cron:" + c.FullPath()
		res := s.Limiter.Check(key, s.RateLimitMax, s.RateLimitWindow)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", s.RateLimitMax))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", res.ResetAt.Unix()))

		if !res.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limited",
			})
			return
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) syncStatus(c *gin.Context) {
	names := s.Syncer.ProviderNames()
	c.JSON(http.StatusOK, gin.H{
		"providers":     names,
		"providerCount": len(names),
	})
}

func (s *Server) runSync(c *gin.Context) {
	start := time.Now()
	results := s.Syncer.SyncAll()
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"duration": time.Since(start).String(),
		"results":  results,
	})
}

func (s *Server) processStatus(c *gin.Context) {
	unprocessed, processed, err := s.Dispatcher.Status()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"unprocessed": unprocessed,
		"processed":   processed,
		"pending":     unprocessed,
	})
}

func (s *Server) runProcess(c *gin.Context) {
	start := time.Now()
	res, err := s.Dispatcher.Dispatch()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"duration":        time.Since(start).String(),
		"articlesCreated": res.Created,
		"totalArticles":   res.Total,
		"before":          res.Before,
		"after":           res.After,
	})
}

func (s *Server) runPublishCycle(c *gin.Context) {
	res, err := s.Cycle.Run()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"posted":  false,
		})
		return
	}

	message := "publish cycle completed"
	if !res.Posted {
		message = "nothing posted"
	}
	body := gin.H{
		"success": true,
		"message": message,
		"posted":  res.Posted,
	}
	if res.ArticleTitle != "" {
		body["articleTitle"] = res.ArticleTitle
	}
	if res.Reason != "" {
		body["reason"] = res.Reason
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) listArticles(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20
	}

	items, err := s.Articles.ListArticles(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}
