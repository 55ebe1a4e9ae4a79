package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services and mapped to HTTP codes in handlers.
var (
	// Auth
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrInvalidCredentials  = errors.New("invalid email, password, or role")
	ErrSessionTokenInvalid = errors.New("session token is invalid or expired")

	// Materials
	ErrMaterialNotFound = errors.New("study material not found")

	// Tests
	ErrTestNotFound  = errors.New("test not found")
	ErrTestNotActive = errors.New("test is not active")

	// Submissions
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateSubmission = errors.New("student has already submitted this test")
	ErrNoSubmissions       = errors.New("test has no submissions to analyze")

	// Analysis
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrAINotConfigured  = errors.New("AI provider is not configured")
	ErrAIAnalysisFailed = errors.New("AI analysis failed")

	// Test-taking sessions
	ErrSessionNotFound = errors.New("test session not found")
	ErrSessionExpired  = errors.New("test session has expired")

	// Generic
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient permissions")
)

// PermissionError carries context about a denied operation.
type PermissionError struct {
	UserID     string
	ResourceID string
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}
