package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classlens/ai-assist/internal/services"
	"github.com/classlens/ai-assist/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// StartSession opens (or resumes) a timed test-taking session
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	state, err := h.sessionService.Start(c.Request.Context(), &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": state,
	})
}

// SubmitAnswer records an answer inside an open session
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	testID := ParseStringIDParam(c, "test_id")
	if testID == "" {
		return
	}

	var req services.SessionAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	state, err := h.sessionService.Answer(c.Request.Context(), testID, &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": state,
	})
}

// Navigate moves the session's current-question pointer
func (h *SessionHandler) Navigate(c *gin.Context) {
	testID := ParseStringIDParam(c, "test_id")
	if testID == "" {
		return
	}

	var req services.SessionNavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	state, err := h.sessionService.Navigate(c.Request.Context(), testID, &req, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": state,
	})
}

// GetState returns the server-side session state, including remaining time
func (h *SessionHandler) GetState(c *gin.Context) {
	testID := ParseStringIDParam(c, "test_id")
	if testID == "" {
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), testID, h.UserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": state,
	})
}

// SubmitSession converts the session into a final test submission
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	testID := ParseStringIDParam(c, "test_id")
	if testID == "" {
		return
	}

	h.LogRequest(c, "Submitting test session", "test_id", testID)

	result, err := h.sessionService.Submit(c.Request.Context(), testID, h.UserID(c), h.UserName(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": result.Submission,
		"endReason":  result.EndReason,
		"timedOut":   result.TimedOut,
	})
}
