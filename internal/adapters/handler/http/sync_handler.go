package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fpellegrini/ritmo-engine/internal/core/domain"
	"github.com/fpellegrini/ritmo-engine/internal/core/services"
)

type SyncHandler struct {
	svc *services.SyncService
}

func NewSyncHandler(svc *services.SyncService) *SyncHandler {
	return &SyncHandler{
		svc: svc,
	}
}

type fullSyncRequest struct {
	Force       bool `json:"force"`
	Recalculate bool `json:"recalculate"`
}

type refreshRequest struct {
	Habits []domain.Habit `json:"habits"`
}

func (h *SyncHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/sync")
	{
		group.POST("/full", h.Full)
		group.POST("/refresh", h.Refresh)
		group.GET("/status", h.Status)
	}
}

// Full runs a complete validate-and-repair cycle. A sync already in
// flight yields 409 unless the caller forces through it.
func (h *SyncHandler) Full(c *gin.Context) {
	var req fullSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result := h.svc.PerformFullSync(c.Request.Context(), services.SyncOptions{
		Force:       req.Force,
		Recalculate: req.Recalculate,
	})

	switch result.Status {
	case domain.SyncStatusSkipped:
		c.JSON(http.StatusConflict, result)
	case domain.SyncStatusFailed:
		c.JSON(http.StatusInternalServerError, result)
	default:
		c.JSON(http.StatusOK, result)
	}
}

// Refresh diffs the caller's snapshot against the persisted one without
// touching storage.
func (h *SyncHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changes, err := h.svc.PerformIncrementalRefresh(c.Request.Context(), req.Habits)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   changes,
		"timestamp": time.Now().UTC(),
	})
}

func (h *SyncHandler) Status(c *gin.Context) {
	inProgress, lastSync := h.svc.Status()

	resp := gin.H{"in_progress": inProgress}
	if !lastSync.IsZero() {
		resp["last_sync"] = lastSync
	}

	c.JSON(http.StatusOK, resp)
}
