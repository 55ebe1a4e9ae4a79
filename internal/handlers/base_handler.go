package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/models"
	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

// ErrorResponse is the uniform error envelope: {"error": "..."} plus
// optional structured details.
type ErrorResponse struct {
	Message string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse is used for operations that return no resource body.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// BaseHandler carries the pieces every handler shares: logging and the
// service-error to HTTP-status mapping.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request-scoped logger.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

// LogError logs an unexpected error with the request-scoped logger.
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.FromContext(c.Request.Context(), h.logger).Error(msg, args...)
}

// RespondWithError writes the error envelope.
func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}

// UserID returns the authenticated user's id from the request context.
func (h *BaseHandler) UserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// UserName returns the authenticated user's display name.
func (h *BaseHandler) UserName(c *gin.Context) string {
	name, exists := c.Get("user_name")
	if !exists {
		return ""
	}
	if n, ok := name.(string); ok {
		return n
	}
	return ""
}

// UserRole returns the authenticated user's role. The second value is false
// when the role is missing or malformed; callers must then refuse the
// request instead of assuming a role.
func (h *BaseHandler) UserRole(c *gin.Context) (models.UserRole, bool) {
	value, exists := c.Get("user_role")
	if !exists {
		return "", false
	}
	role, ok := value.(models.UserRole)
	return role, ok
}

// ParseStringIDParam validates a non-empty path parameter, responding 400
// itself when the value is missing.
func ParseStringIDParam(c *gin.Context, param string) string {
	id := c.Param(param)
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return id
}

// handleServiceError maps service-layer errors to HTTP responses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrSessionTokenInvalid):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized access",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid email, password, or role",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrMaterialNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Study material not found",
		})
	case errors.Is(err, services.ErrTestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Test not found",
		})
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Submission not found",
		})
	case errors.Is(err, services.ErrAnalysisNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No analysis found for this test and material",
		})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Test session not found",
		})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Email is already registered",
		})
	case errors.Is(err, services.ErrDuplicateSubmission):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "You have already submitted this test",
		})
	case errors.Is(err, services.ErrTestNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Test is not accepting submissions",
		})
	case errors.Is(err, services.ErrSessionExpired):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Test session has expired",
		})
	case errors.Is(err, services.ErrNoSubmissions):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Test has no submissions to analyze",
		})
	case errors.Is(err, services.ErrAINotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "AI analysis is not configured",
		})
	case errors.Is(err, services.ErrAIAnalysisFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "AI analysis failed",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
