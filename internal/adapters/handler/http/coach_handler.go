package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fpellegrini/ritmo-engine/internal/core/services"
)

type CoachHandler struct {
	svc *services.CoachService
}

func NewCoachHandler(svc *services.CoachService) *CoachHandler {
	return &CoachHandler{
		svc: svc,
	}
}

func (h *CoachHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/coach")
	{
		group.GET("/tip", h.Tip)
		group.GET("/analysis", h.Analysis)
	}
}

// Tip always answers 200 with some message: generator failures are
// absorbed into templated fallbacks inside the service.
func (h *CoachHandler) Tip(c *gin.Context) {
	tip, err := h.svc.DailyTip(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tip": tip})
}

func (h *CoachHandler) Analysis(c *gin.Context) {
	analysis, err := h.svc.BuildAnalysis(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, analysis)
}
