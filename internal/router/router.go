package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prajna-app/prajna-backend/internal/config"
	"github.com/prajna-app/prajna-backend/internal/handler"
	"github.com/prajna-app/prajna-backend/internal/middleware"
	"github.com/prajna-app/prajna-backend/internal/response"
	"github.com/prajna-app/prajna-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam   *handler.ExamHandler
	Credit *handler.CreditHandler
	WS     *handler.WSHandler
	System *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the request log and every envelope carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	// ─── Health ────────────────────────────────────────────────────────
	router.GET("/health", handlers.System.Health)
	router.GET("/health/ready", handlers.System.Ready)

	requireUser := middleware.RequireUserJWT(authService)

	// AI-backed routes share one budget per client.
	aiLimiter := middleware.NewRateLimiter(rdb, "ai", cfg.RateLimitPerMin, time.Minute, log)

	// ─── 1. Exam Group ─────────────────────────────────────────────────
	exam := router.Group("/api/v1/exam")
	exam.Use(requireUser, middleware.NoStore())
	{
		exam.POST("", aiLimiter.Middleware(), handlers.Exam.CreateExam)
		exam.GET("", handlers.Exam.ListExams)
		exam.GET("/main/:id", handlers.Exam.GetExam)
		exam.POST("/eval", aiLimiter.Middleware(), handlers.Exam.EvaluateExam)
		exam.POST("/regenerate/:id", aiLimiter.Middleware(), handlers.Exam.RegenerateExam)
	}

	// ─── 2. Credit Group ───────────────────────────────────────────────
	credit := router.Group("/api/v1/credit/:user_id")
	credit.Use(requireUser, middleware.RequireOwnerParam("user_id"), middleware.NoStore())
	{
		credit.GET("", handlers.Credit.GetCredit)
		credit.POST("", handlers.Credit.CreateCredit)
		credit.PATCH("", handlers.Credit.UpdateCredit)
		credit.GET("/check", handlers.Credit.CheckCredit)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireUser)
	{
		ws.GET("/exam/:id/status", handlers.WS.ExamStatusStream)
	}

	return router
}
