package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/repositories"
	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

type TestHandler struct {
	BaseHandler
	testService services.TestService
}

func NewTestHandler(testService services.TestService, logger utils.Logger) *TestHandler {
	return &TestHandler{
		BaseHandler: NewBaseHandler(logger),
		testService: testService,
	}
}

// CreateTest creates a test with its questions in one request
func (h *TestHandler) CreateTest(c *gin.Context) {
	var req services.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	test, err := h.testService.Create(c.Request.Context(), &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"test":    test,
	})
}

// GetTest retrieves a test with its questions
func (h *TestHandler) GetTest(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	test, err := h.testService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"test":    test,
	})
}

// ListTests lists tests; teachers see their own, students see active tests
func (h *TestHandler) ListTests(c *gin.Context) {
	role, ok := h.UserRole(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	filters := h.parseTestFilters(c)
	resp, err := h.testService.List(c.Request.Context(), filters, h.UserID(c), role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tests":   resp.Tests,
		"total":   resp.Total,
	})
}

// UpdateTestStatus transitions a test between active, inactive, and completed
func (h *TestHandler) UpdateTestStatus(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating test status", "test_id", id)

	var req services.UpdateTestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	test, err := h.testService.UpdateStatus(c.Request.Context(), id, &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"test":    test,
	})
}

// DeleteTest removes a test and its questions
func (h *TestHandler) DeleteTest(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting test", "test_id", id)

	if err := h.testService.Delete(c.Request.Context(), id, h.UserID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Test deleted successfully",
	})
}

func (h *TestHandler) parseTestFilters(c *gin.Context) repositories.TestFilters {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)

	filters := repositories.TestFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if materialID := c.Query("materialId"); materialID != "" {
		filters.MaterialID = &materialID
	}

	if status := c.Query("status"); status != "" {
		testStatus := models.TestStatus(status)
		filters.Status = &testStatus
	}

	return filters
}
