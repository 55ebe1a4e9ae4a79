package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	exportService     services.ExportService
}

func NewSubmissionHandler(submissionService services.SubmissionService, exportService services.ExportService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		exportService:     exportService,
	}
}

// CreateSubmission records a student's one-shot test submission
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req services.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	submission, err := h.submissionService.Create(c.Request.Context(), &req, h.UserID(c), h.UserName(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// GetSubmission retrieves a single submission
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	submission, err := h.submissionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// ListSubmissions lists submissions scoped by role: teachers see a test's
// submissions, students see their own.
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	role, ok := h.UserRole(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	var (
		resp *services.SubmissionListResponse
		err  error
	)

	if role == models.RoleTeacher {
		testID := c.Query("testId")
		if testID == "" {
			h.RespondWithError(c, http.StatusBadRequest, "Query parameter 'testId' is required", nil)
			return
		}
		resp, err = h.submissionService.ListByTest(c.Request.Context(), testID, h.UserID(c))
	} else {
		resp, err = h.submissionService.ListByStudent(c.Request.Context(), h.UserID(c))
	}

	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": resp.Submissions,
		"total":       resp.Total,
	})
}

// CheckSubmission tells a student whether they already submitted a test
func (h *SubmissionHandler) CheckSubmission(c *gin.Context) {
	testID := c.Query("testId")
	if testID == "" {
		h.RespondWithError(c, http.StatusBadRequest, "Query parameter 'testId' is required", nil)
		return
	}

	submitted, err := h.submissionService.HasSubmitted(c.Request.Context(), testID, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"submitted": submitted,
	})
}

// ExportSubmissions streams a test's submissions as a spreadsheet download
func (h *SubmissionHandler) ExportSubmissions(c *gin.Context) {
	testID := c.Query("testId")
	if testID == "" {
		h.RespondWithError(c, http.StatusBadRequest, "Query parameter 'testId' is required", nil)
		return
	}

	h.LogRequest(c, "Exporting submissions", "test_id", testID)

	result, err := h.exportService.ExportSubmissions(c.Request.Context(), testID, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Data)
}
