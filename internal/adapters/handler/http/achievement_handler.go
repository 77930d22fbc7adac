package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fpellegrini/ritmo-engine/internal/core/achievements"
	"github.com/fpellegrini/ritmo-engine/internal/core/services"
)

type AchievementHandler struct {
	svc *services.HabitService
}

func NewAchievementHandler(svc *services.HabitService) *AchievementHandler {
	return &AchievementHandler{
		svc: svc,
	}
}

func (h *AchievementHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/achievements")
	{
		group.GET("", h.List)
		group.GET("/progress", h.Progress)
		group.POST("/check", h.Check)
	}
}

// List returns the full catalog plus the ids already unlocked.
func (h *AchievementHandler) List(c *gin.Context) {
	unlocked, err := h.svc.UnlockedAchievementIDs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"catalog":  achievements.Catalog(),
		"unlocked": unlocked,
	})
}

// Progress reports how close each still-locked achievement is, most
// advanced first.
func (h *AchievementHandler) Progress(c *gin.Context) {
	ctx := c.Request.Context()

	habits, err := h.svc.GetAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	unlocked, err := h.svc.UnlockedAchievementIDs(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, achievements.Progress(habits, unlocked))
}

// Check evaluates the catalog against the current collection, persists
// any newly unlocked ids and returns them. The unlocked set is
// append-only: badges whose condition no longer holds stay unlocked.
// Calling it twice in a row yields no new unlocks the second time.
func (h *AchievementHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	habits, err := h.svc.GetAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	unlocked, err := h.svc.UnlockedAchievementIDs(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	result := achievements.CheckAchievements(habits, unlocked)

	if len(result.NewAchievements) > 0 {
		unlocked = append(unlocked, result.NewAchievements...)
		if err := h.svc.SaveUnlockedAchievementIDs(ctx, unlocked); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"new_achievements": result.NewAchievements,
		"unlocked":         unlocked,
	})
}
