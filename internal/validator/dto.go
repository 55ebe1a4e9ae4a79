package validator

import (
	"encoding/json"

	"github.com/classlens/ai-assist/internal/models"
)

// SignupRequest registers a new user account.
type SignupRequest struct {
	Name     string          `json:"name" validate:"required,min=1,max=255"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`

	Institution string `json:"institution" validate:"omitempty,max=255"`
	Subject     string `json:"subject" validate:"omitempty,max=255"`
	Grade       string `json:"grade" validate:"omitempty,max=50"`
	StudentID   string `json:"studentId" validate:"omitempty,max=50"`
}

// LoginRequest authenticates an existing user. Role must match the stored
// account role.
type LoginRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`
}

// MaterialCreateRequest uploads a study material.
type MaterialCreateRequest struct {
	Title       string `json:"title" validate:"required,material_title"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Content     string `json:"content"`
	FileName    string `json:"fileName" validate:"omitempty,max=255"`
	FileType    string `json:"fileType" validate:"omitempty,max=100"`
	FileSize    int64  `json:"fileSize" validate:"omitempty,min=0"`
}

// MaterialUpdateRequest is a partial update; nil fields are left unchanged.
type MaterialUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,material_title"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Content     *string `json:"content"`
	FileName    *string `json:"fileName" validate:"omitempty,max=255"`
	FileType    *string `json:"fileType" validate:"omitempty,max=100"`
	FileSize    *int64  `json:"fileSize" validate:"omitempty,min=0"`
}

// QuestionCreateRequest is one question inside a test creation payload.
type QuestionCreateRequest struct {
	Text    string   `json:"question" validate:"required,min=1,max=2000"`
	Type    string   `json:"type" validate:"required,question_type"`
	Options []string `json:"options" validate:"omitempty,max=10,dive,max=500"`
	Points  int      `json:"points" validate:"omitempty,min=1,max=100"`
}

// TestCreateRequest creates a test with its questions in one call.
type TestCreateRequest struct {
	Title       string                  `json:"title" validate:"required,material_title"`
	Description string                  `json:"description" validate:"omitempty,max=2000"`
	MaterialID  string                  `json:"materialId" validate:"required,uuid4"`
	Duration    int                     `json:"duration" validate:"omitempty,test_duration"`
	Questions   []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// TestStatusUpdateRequest changes a test's lifecycle status.
type TestStatusUpdateRequest struct {
	Status models.TestStatus `json:"status" validate:"required,test_status"`
}

// SubmissionCreateRequest records a student's answers for a test. Answers is
// kept raw because two payload shapes are accepted: an ordered list of
// {questionId, answer} objects or a map keyed by question id.
type SubmissionCreateRequest struct {
	TestID      string          `json:"testId" validate:"required,uuid4"`
	StudentName string          `json:"studentName" validate:"omitempty,max=255"`
	Answers     json.RawMessage `json:"answers" validate:"required"`
	TimeSpent   int             `json:"timeSpent" validate:"omitempty,min=0"`
}

// SessionStartRequest opens a timed test-taking session.
type SessionStartRequest struct {
	TestID string `json:"testId" validate:"required,uuid4"`
}

// SessionAnswerRequest records one answer inside an open session.
type SessionAnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required,uuid4"`
	Answer     string `json:"answer"`
}

// SessionNavigateRequest moves the current-question pointer.
type SessionNavigateRequest struct {
	QuestionIndex int `json:"questionIndex" validate:"min=0"`
}

// AnalyzeTestRequest triggers the AI analysis pipeline for a test.
type AnalyzeTestRequest struct {
	TestID     string `json:"testId" validate:"required,uuid4"`
	MaterialID string `json:"materialId" validate:"required,uuid4"`
}

// AnalysisCreateRequest persists an externally produced analysis document.
type AnalysisCreateRequest struct {
	TestID          string                        `json:"testId" validate:"required,uuid4"`
	MaterialID      string                        `json:"materialId" validate:"required,uuid4"`
	Misconceptions  []models.StudentMisconception `json:"misconceptions" validate:"omitempty,dive"`
	ContentGuidance []models.ContentGuidance      `json:"contentGuidance" validate:"omitempty,dive"`
	OverallInsights []string                      `json:"overallInsights"`
	SubmissionCount int                           `json:"submissionCount" validate:"omitempty,min=0"`
}

// ImproveMaterialRequest generates an improvement report for a material.
type ImproveMaterialRequest struct {
	TestID     string `json:"testId" validate:"required,uuid4"`
	MaterialID string `json:"materialId" validate:"required,uuid4"`
}
