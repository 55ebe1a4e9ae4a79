package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

type AnalysisHandler struct {
	BaseHandler
	analysisService services.AnalysisService
}

func NewAnalysisHandler(analysisService services.AnalysisService, logger utils.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:     NewBaseHandler(logger),
		analysisService: analysisService,
	}
}

// AnalyzeTest runs the full AI analysis pipeline for a test
func (h *AnalysisHandler) AnalyzeTest(c *gin.Context) {
	var req services.AnalyzeTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Running test analysis", "test_id", req.TestID)

	analysis, err := h.analysisService.Analyze(c.Request.Context(), &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"analysis": analysis,
		"fallback": analysis.Fallback,
	})
}

// SaveAnalysis persists an analysis document supplied by the client
func (h *AnalysisHandler) SaveAnalysis(c *gin.Context) {
	var req services.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	analysis, err := h.analysisService.Save(c.Request.Context(), &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"analysis": analysis,
	})
}

// ListAnalyses returns the caller's analyses, most recent first
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	filters := repositories.AnalysisFilters{
		Limit:  parseIntQuery(c, "size", 20),
		Offset: (parseIntQuery(c, "page", 1) - 1) * parseIntQuery(c, "size", 20),
	}
	if testID := c.Query("testId"); testID != "" {
		filters.TestID = &testID
	}

	resp, err := h.analysisService.List(c.Request.Context(), filters, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"analyses": resp.Analyses,
		"total":    resp.Total,
	})
}

// ImproveMaterial renders the downloadable improvement report
func (h *AnalysisHandler) ImproveMaterial(c *gin.Context) {
	var req services.ImproveMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Generating material improvement report", "material_id", req.MaterialID)

	doc, err := h.analysisService.ImproveMaterial(c.Request.Context(), &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"content":  doc.Content,
		"filename": doc.FileName,
	})
}
