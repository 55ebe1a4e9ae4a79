package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetTeacherDashboard returns the calling teacher's counts and recent activity
func (h *DashboardHandler) GetTeacherDashboard(c *gin.Context) {
	stats, err := h.service.TeacherDashboard(c.Request.Context(), h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// GetStudentDashboard returns the calling student's test availability stats
func (h *DashboardHandler) GetStudentDashboard(c *gin.Context) {
	stats, err := h.service.StudentDashboard(c.Request.Context(), h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
