package http

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
	"github.com/fpellegrini/ritmo-engine/internal/core/progress"
	"github.com/fpellegrini/ritmo-engine/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	Name       string `json:"name" binding:"required"`
	Frequency  string `json:"frequency"`
	TargetTime string `json:"target_time"`
}

type updateHabitRequest struct {
	Name       *string `json:"name"`
	Frequency  *string `json:"frequency"`
	TargetTime *string `json:"target_time"`
}

type completionRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.DELETE("", h.ClearAll)
		habits.PUT("/:id", h.Update)
		habits.DELETE("/:id", h.Delete)
		habits.PUT("/:id/completion", h.ToggleCompletion)
		habits.GET("/:id/progress", h.Progress)
		habits.POST("/recalculate", h.Recalculate)
	}
}

func (h *HabitHandler) Create(c *gin.Context) {
	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.CreateHabitInput{
		Name:       req.Name,
		Frequency:  req.Frequency,
		TargetTime: req.TargetTime,
	}

	habit, err := h.svc.Add(c.Request.Context(), input)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, habit)
}

// List runs the recalculation pass before returning the collection, so
// counters and today's completion flags are current even right after a
// day rollover.
func (h *HabitHandler) List(c *gin.Context) {
	list, err := h.svc.RecalculateAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *HabitHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.UpdateHabitInput{
		Name:       req.Name,
		Frequency:  req.Frequency,
		TargetTime: req.TargetTime,
	}

	err := h.svc.Update(c.Request.Context(), id, input)
	if err != nil {
		if errors.Is(err, domain.ErrHabitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
			return
		}
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Status(http.StatusOK)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	err := h.svc.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrHabitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HabitHandler) ToggleCompletion(c *gin.Context) {
	id := c.Param("id")

	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.UpdateCompletion(c.Request.Context(), id, *req.Completed)
	if err != nil {
		if errors.Is(err, domain.ErrHabitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Progress computes the derived metrics for one habit: completion rate,
// streaks, weekly rate, color tier, consistency, insights and
// recommendations. Everything is derived on read; nothing is persisted.
func (h *HabitHandler) Progress(c *gin.Context) {
	id := c.Param("id")

	habits, err := h.svc.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var habit *domain.Habit
	for i := range habits {
		if habits[i].ID == id {
			habit = &habits[i]
			break
		}
	}
	if habit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
		return
	}

	current, longest := progress.Streaks(habit.CompletionHistory)
	percentage := progress.CompletionPercentage(habit)
	consistency := progress.ConsistencyScore(habit)

	c.JSON(http.StatusOK, gin.H{
		"habit_id":              habit.ID,
		"completion_percentage": percentage,
		"current_streak":        current,
		"longest_streak":        longest,
		"weekly_rate":           progress.WeeklyCompletionRate(habit.CompletionHistory, progress.DefaultWeeksBack),
		"color_tier":            progress.ColorTier(percentage),
		"consistency":           consistency,
		"insights":              slices.Collect(progress.Insights(habit)),
		"recommendations":       slices.Collect(progress.Recommendations(habit)),
	})
}

func (h *HabitHandler) Recalculate(c *gin.Context) {
	habits, err := h.svc.RecalculateAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habits": habits,
		"count":  len(habits),
	})
}

func (h *HabitHandler) ClearAll(c *gin.Context) {
	if err := h.svc.ClearAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func isValidationError(err error) bool {
	return errors.Is(err, domain.ErrHabitNameEmpty) ||
		errors.Is(err, domain.ErrHabitNameTooLong) ||
		errors.Is(err, domain.ErrInvalidFrequency) ||
		errors.Is(err, domain.ErrInvalidTargetTime)
}
