package http

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/fpellegrini/ritmo-engine/internal/adapters/handler/http/middleware"
	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
)

type RouterDependencies struct {
	HabitHandler       *HabitHandler
	AchievementHandler *AchievementHandler
	SyncHandler        *SyncHandler
	CoachHandler       *CoachHandler
	Store              domain.KeyValueStore
	Redis              *redis.Client
	StartTime          time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, 100, 1*time.Minute))
	}

	router.GET("/health", func(c *gin.Context) {
		storeStatus := "reachable"
		if _, err := deps.Store.Get(c.Request.Context(), "ritmo:health"); err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
			storeStatus = "unreachable"
		}

		statusCode := 200
		if storeStatus == "unreachable" {
			statusCode = 503
		}

		c.JSON(statusCode, gin.H{
			"status": "ok",
			"store":  storeStatus,
			"uptime": time.Since(deps.StartTime).String(),
		})
	})

	apiV1 := router.Group("/api/v1")

	deps.HabitHandler.RegisterRoutes(apiV1)
	deps.AchievementHandler.RegisterRoutes(apiV1)
	deps.SyncHandler.RegisterRoutes(apiV1)
	deps.CoachHandler.RegisterRoutes(apiV1)

	return router
}
